package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// BlockType names one kind of canvas content block
type BlockType string

const (
	BlockTypeHeading    BlockType = "heading"
	BlockTypeSubheading BlockType = "subheading"
	BlockTypeParagraph  BlockType = "paragraph"
	BlockTypeImage      BlockType = "image"
	BlockTypeButton     BlockType = "button"
	BlockTypeLine       BlockType = "line"
)

// Block is one element of a campaign design. The set of implementations is closed.
type Block interface {
	Type() BlockType
	isBlock()
}

// HeadingBlock is a top level title
type HeadingBlock struct {
	Content   string
	FontSize  int
	Color     string
	TextAlign string
}

// SubheadingBlock is a secondary title
type SubheadingBlock struct {
	Content   string
	FontSize  int
	Color     string
	TextAlign string
}

// ParagraphBlock holds newline separated body text
type ParagraphBlock struct {
	Content   string
	FontSize  int
	Color     string
	TextAlign string
}

// ImageBlock is a centered picture
type ImageBlock struct {
	Src       string
	Alt       string
	TextAlign string
}

// ButtonBlock is a call to action link
type ButtonBlock struct {
	Content         string
	Link            string
	BackgroundColor string
	Color           string
	FontSize        int
}

// LineBlock is a horizontal separator
type LineBlock struct {
	StrokeWidth int
	StrokeColor string
}

// UnknownBlock keeps the position of an element the builder sent with an unsupported type.
// Renderers emit nothing for it, but its presence still marks the canvas as designed.
type UnknownBlock struct {
	Kind string
}

func (HeadingBlock) Type() BlockType    { return BlockTypeHeading }
func (SubheadingBlock) Type() BlockType { return BlockTypeSubheading }
func (ParagraphBlock) Type() BlockType  { return BlockTypeParagraph }
func (ImageBlock) Type() BlockType      { return BlockTypeImage }
func (ButtonBlock) Type() BlockType     { return BlockTypeButton }
func (LineBlock) Type() BlockType       { return BlockTypeLine }
func (b UnknownBlock) Type() BlockType  { return BlockType(b.Kind) }

func (HeadingBlock) isBlock()    {}
func (SubheadingBlock) isBlock() {}
func (ParagraphBlock) isBlock()  {}
func (ImageBlock) isBlock()      {}
func (ButtonBlock) isBlock()     {}
func (LineBlock) isBlock()       {}
func (UnknownBlock) isBlock()    {}

// flexInt accepts a JSON number or a numeric string; anything else decodes to zero
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(v)
	return nil
}

// flexString accepts any JSON scalar and keeps its textual form
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if data[0] == '{' || data[0] == '[' {
		*f = ""
		return nil
	}
	*f = flexString(data)
	return nil
}

// canvasElement is the wire shape produced by the dashboard's canvas builder
type canvasElement struct {
	Type            string     `json:"type"`
	Content         flexString `json:"content"`
	FontSize        flexInt    `json:"fontSize"`
	Color           flexString `json:"color"`
	TextAlign       flexString `json:"textAlign"`
	Src             flexString `json:"src"`
	Alt             flexString `json:"alt"`
	Link            flexString `json:"link"`
	BackgroundColor flexString `json:"backgroundColor"`
	StrokeWidth     flexInt    `json:"strokeWidth"`
	StrokeColor     flexString `json:"strokeColor"`
}

func (e canvasElement) toBlock() Block {
	switch BlockType(e.Type) {
	case BlockTypeHeading:
		return HeadingBlock{Content: string(e.Content), FontSize: int(e.FontSize), Color: string(e.Color), TextAlign: string(e.TextAlign)}
	case BlockTypeSubheading:
		return SubheadingBlock{Content: string(e.Content), FontSize: int(e.FontSize), Color: string(e.Color), TextAlign: string(e.TextAlign)}
	case BlockTypeParagraph:
		return ParagraphBlock{Content: string(e.Content), FontSize: int(e.FontSize), Color: string(e.Color), TextAlign: string(e.TextAlign)}
	case BlockTypeImage:
		return ImageBlock{Src: string(e.Src), Alt: string(e.Alt), TextAlign: string(e.TextAlign)}
	case BlockTypeButton:
		return ButtonBlock{
			Content:         string(e.Content),
			Link:            string(e.Link),
			BackgroundColor: string(e.BackgroundColor),
			Color:           string(e.Color),
			FontSize:        int(e.FontSize),
		}
	case BlockTypeLine:
		return LineBlock{StrokeWidth: int(e.StrokeWidth), StrokeColor: string(e.StrokeColor)}
	default:
		return UnknownBlock{Kind: e.Type}
	}
}

// ParseCanvas decodes a design payload into typed blocks, preserving order.
// Elements with an unknown type become UnknownBlock. An empty or null payload yields no blocks.
func ParseCanvas(data []byte) ([]Block, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var elements []canvasElement
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, fmt.Errorf("invalid canvas data: %w", err)
	}

	blocks := make([]Block, 0, len(elements))
	for _, e := range elements {
		blocks = append(blocks, e.toBlock())
	}
	return blocks, nil
}

// Recipient is one campaign target. On the wire it is a bare address or an object with an email field.
type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

func (r *Recipient) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*r = Recipient{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Recipient{Email: s}
	case '{':
		var obj struct {
			Email flexString `json:"email"`
			Name  flexString `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*r = Recipient{Email: string(obj.Email), Name: string(obj.Name)}
	default:
		*r = Recipient{}
	}
	return nil
}

// Address returns the trimmed address, empty when the entry has none
func (r Recipient) Address() string {
	return strings.TrimSpace(r.Email)
}

// ParseRecipients decodes a recipient list payload
func ParseRecipients(data []byte) ([]Recipient, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var recipients []Recipient
	if err := json.Unmarshal(data, &recipients); err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}
	return recipients, nil
}
