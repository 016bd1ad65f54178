// Package content turns stored chat payloads into markdown the renderer can
// display: user messages with their attached images and files, and assistant
// replies with local image references and inline math cleaned up.
package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// ErrInvalidPayload is returned when a user message cannot be decoded.
var ErrInvalidPayload = errors.New("invalid message payload")

// User is a user message: text plus ordered image and file paths.
type User struct {
	Text   string   `json:"text" mapstructure:"text"`
	Images []string `json:"images" mapstructure:"images"`
	Files  []string `json:"files" mapstructure:"files"`
}

// UserFrom builds a User from a JSON-encoded string or bytes, or from an
// already structured value. Missing images and files are empty.
func UserFrom(value any) (User, error) {
	var u User
	switch v := value.(type) {
	case User:
		u = v
	case *User:
		if v == nil {
			return User{}, fmt.Errorf("%w: nil message", ErrInvalidPayload)
		}
		u = *v
	case string:
		if err := json.Unmarshal([]byte(v), &u); err != nil {
			return User{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	case json.RawMessage:
		if err := json.Unmarshal(v, &u); err != nil {
			return User{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	case []byte:
		if err := json.Unmarshal(v, &u); err != nil {
			return User{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	case map[string]any:
		if err := mapstructure.Decode(v, &u); err != nil {
			return User{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	default:
		return User{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidPayload, value)
	}

	if u.Images == nil {
		u.Images = []string{}
	}
	if u.Files == nil {
		u.Files = []string{}
	}
	return u, nil
}

// ToMd renders the text followed by one image embed per image and one file
// card per file. Images resolve through assets; sep splits file paths.
func (u User) ToMd(assets AssetResolver, sep string) string {
	var b strings.Builder
	b.WriteString(u.Text)

	if len(u.Images) > 0 {
		embeds := make([]string, len(u.Images))
		for i, image := range u.Images {
			embeds[i] = "![image](" + assets.Resolve(image) + ")"
		}
		b.WriteString(strings.Join(embeds, "\n"))
	}

	if len(u.Files) > 0 {
		cards := make([]string, len(u.Files))
		for i, file := range u.Files {
			cards[i] = RenderFileCard(file, sep)
		}
		b.WriteString(strings.Join(cards, "\n"))
	}

	return b.String()
}

// IsEmpty reports whether there is nothing worth rendering.
func (u User) IsEmpty() bool {
	return strings.TrimSpace(u.Text) == "" && len(u.Images) == 0 && len(u.Files) == 0
}
