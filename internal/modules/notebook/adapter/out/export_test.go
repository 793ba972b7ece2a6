package out

import "notebook/internal/modules/notebook/domain"

func EncodeXMLDocument(c domain.Collection) ([]byte, error) {
	return xmlCodec{}.Encode(c)
}
