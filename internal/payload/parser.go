// Package payload extracts the typed message fragment from the
// semi-structured document embedded in an inquiry's free-text field or in
// its archive attachment. Parsing is stateless and safe to parallelize.
package payload

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/navikt/inquiry-migrator/internal/domain"
)

// ErrParse is returned for documents that are not well-formed XML.
var ErrParse = errors.New("payload parse failed")

// fromUserType is the discriminator value on the metadata node, compared
// case-insensitively after stripping any namespace prefix.
const fromUserType = "meldingFraBruker"

type metadataList struct {
	XMLName  xml.Name       `xml:"metadataListe"`
	Metadata []metadataNode `xml:"metadata"`
}

type metadataNode struct {
	Type       string  `xml:"type,attr"`
	TopicGroup *string `xml:"temagruppe"`
	FreeText   *string `xml:"fritekst"`
	Channel    *string `xml:"kanal"`
	Caseworker *string `xml:"navident"`
}

// Parse extracts the message fragment from a payload document. A missing
// sub-node yields a nil field, not an error. The topic group is carried
// through unvalidated; reconstruction validates it against the enum.
func Parse(doc string) (*domain.Message, error) {
	var parsed metadataList
	dec := xml.NewDecoder(bytes.NewReader([]byte(doc)))
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(parsed.Metadata) == 0 {
		return nil, fmt.Errorf("%w: no metadata node", ErrParse)
	}
	node := parsed.Metadata[0]

	msg := &domain.Message{
		FreeText: node.FreeText,
	}
	if node.TopicGroup != nil {
		tg := domain.TopicGroup(*node.TopicGroup)
		msg.TopicGroup = &tg
	}

	if isFromUser(node.Type) {
		msg.Kind = domain.MessageFromUser
		return msg, nil
	}

	msg.Kind = domain.MessageToUser
	msg.CaseworkerID = node.Caseworker
	if node.Channel != nil {
		ch, err := domain.ParseChannel(*node.Channel)
		if err != nil {
			return nil, err
		}
		msg.Channel = &ch
	}
	return msg, nil
}

func isFromUser(typeAttr string) bool {
	local := typeAttr
	if i := strings.LastIndex(local, ":"); i >= 0 {
		local = local[i+1:]
	}
	return strings.EqualFold(local, fromUserType)
}
