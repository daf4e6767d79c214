package contacts

import (
	"fmt"
	"net/mail"

	"com.aviebrantz.studio-site/pkg/core/store/collection"
	"gocloud.dev/docstore"
)

// Contact holds the studio's public contact details. It is read-only
// for every caller except the startup seed.
type Contact struct {
	ID       string `json:"id" docstore:"id"`
	Phone    string `json:"phone_no" docstore:"phone_no"`
	WhatsApp string `json:"whatsapp_no" docstore:"whatsapp_no"`
	Email    string `json:"email" docstore:"email"`
}

func (c Contact) Validate() error {
	if c.Phone == "" && c.WhatsApp == "" && c.Email == "" {
		return fmt.Errorf("%w: contact needs at least one channel", collection.ErrInvalidRecord)
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return fmt.Errorf("%w: contact email %q: %v", collection.ErrInvalidRecord, c.Email, err)
		}
	}
	return nil
}

func (c Contact) WithID(id string) Contact {
	c.ID = id
	return c
}

type ContactCollection = collection.Accessor[Contact]

// NewCollection create a contact accessor using a gocloud.dev/docstore collection
func NewCollection(coll *docstore.Collection) *ContactCollection {
	return collection.NewAccessor[Contact]("contacts", coll)
}
