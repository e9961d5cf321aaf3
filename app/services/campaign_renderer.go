package services

import (
	"fmt"
	"html"
	"strings"

	"github.com/amirphl/Orochi-CRM/models"
)

// CampaignRenderer projects a canvas into the HTML body and the plain text alternative of a campaign email
type CampaignRenderer interface {
	RenderHTML(blocks []models.Block, subject, fromName, fromEmail string) string
	RenderPlainText(blocks []models.Block, subject, fromName, fromEmail string) string
}

// blockDefaults holds the fallback attribute values shared by both projections
var blockDefaults = struct {
	HeadingFontSize    int
	SubheadingFontSize int
	ParagraphFontSize  int
	ButtonFontSize     int
	TextColor          string
	TextAlign          string
	ImageAlign         string
	HeadingText        string
	SubheadingText     string
	ParagraphText      string
	ImageAlt           string
	ButtonLabel        string
	ButtonTextLabel    string
	ButtonLink         string
	ButtonBackground   string
	ButtonColor        string
	LineWidth          int
	LineColor          string
}{
	HeadingFontSize:    28,
	SubheadingFontSize: 22,
	ParagraphFontSize:  16,
	ButtonFontSize:     16,
	TextColor:          "#333",
	TextAlign:          "left",
	ImageAlign:         "center",
	HeadingText:        "Heading",
	SubheadingText:     "Subheading",
	ParagraphText:      "Paragraph text",
	ImageAlt:           "Image",
	ButtonLabel:        "Click Me",
	ButtonTextLabel:    "Button",
	ButtonLink:         "#",
	ButtonBackground:   "#007bff",
	ButtonColor:        "#ffffff",
	LineWidth:          1,
	LineColor:          "#dee2e6",
}

const plainTextSeparator = "----------------------------------------"

// CampaignRendererImpl is stateless and safe for concurrent use
type CampaignRendererImpl struct{}

// NewCampaignRenderer creates a new campaign renderer
func NewCampaignRenderer() CampaignRenderer {
	return &CampaignRendererImpl{}
}

func orString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func orInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

// esc escapes a value for use inside element content or a double quoted attribute
func esc(v string) string {
	return html.EscapeString(v)
}

const documentHead = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"><title>%s</title></head>
`

// RenderHTML builds the complete HTML document
func (r *CampaignRendererImpl) RenderHTML(blocks []models.Block, subject, fromName, fromEmail string) string {
	var b strings.Builder

	if len(blocks) == 0 {
		r.writePlaceholder(&b, subject, fromName, fromEmail)
		return b.String()
	}

	fmt.Fprintf(&b, documentHead, esc(subject))
	b.WriteString(`<body style="margin:0;padding:0;font-family:Arial,sans-serif;background-color:#f4f4f4;">
<table width="100%" cellpadding="0" cellspacing="0" border="0">
<tr><td align="center" style="padding:20px;">
<table width="600" cellpadding="0" cellspacing="0" border="0" style="max-width:600px;background-color:#ffffff;">
<tr><td style="padding:30px;">
`)

	for _, block := range blocks {
		writeHTMLBlock(&b, block)
	}

	fmt.Fprintf(&b, `</td></tr>
<tr><td style="padding:20px;background-color:#f8f9fa;border-top:1px solid #dee2e6;text-align:center;">
<p style="margin:0 0 10px 0;font-size:12px;color:#6c757d;">This email was sent by <strong>%s</strong></p>
<p style="margin:0;font-size:11px;color:#999999;"><a href="mailto:%s" style="color:#007bff;">%s</a></p>
</td></tr>
</table>
</td></tr>
</table>
</body></html>`, esc(fromName), esc(fromEmail), esc(fromEmail))

	return b.String()
}

func (r *CampaignRendererImpl) writePlaceholder(b *strings.Builder, subject, fromName, fromEmail string) {
	fmt.Fprintf(b, documentHead, esc(subject))
	fmt.Fprintf(b, `<body style="margin:0;padding:0;font-family:Arial,sans-serif;background-color:#ffffff;">
<table width="100%%" cellpadding="0" cellspacing="0" border="0">
<tr><td align="center" style="padding:20px;">
<table width="600" cellpadding="0" cellspacing="0" border="0" style="max-width:600px;">
<tr><td style="padding:20px;background-color:#ffffff;">
<h1 style="margin:0 0 20px 0;font-size:24px;color:#333333;">%s</h1>
<p style="margin:0 0 16px 0;font-size:16px;line-height:1.6;color:#333333;">This email was sent from your campaign builder.</p>
<hr style="border:none;height:1px;background-color:#eeeeee;margin:30px 0;">
<p style="margin:0;font-size:12px;color:#999999;text-align:center;">Sent by %s<br>
<a href="mailto:%s" style="color:#007bff;">%s</a></p>
</td></tr>
</table>
</td></tr>
</table>
</body></html>`, esc(subject), esc(fromName), esc(fromEmail), esc(fromEmail))
}

func writeHTMLBlock(b *strings.Builder, block models.Block) {
	d := blockDefaults

	switch v := block.(type) {
	case models.HeadingBlock:
		fmt.Fprintf(b, `<h1 style="margin:0 0 20px 0;font-size:%dpx;color:%s;font-weight:bold;text-align:%s;">%s</h1>`+"\n",
			orInt(v.FontSize, d.HeadingFontSize), esc(orString(v.Color, d.TextColor)),
			esc(orString(v.TextAlign, d.TextAlign)), esc(orString(v.Content, d.HeadingText)))
	case models.SubheadingBlock:
		fmt.Fprintf(b, `<h2 style="margin:0 0 16px 0;font-size:%dpx;color:%s;font-weight:600;text-align:%s;">%s</h2>`+"\n",
			orInt(v.FontSize, d.SubheadingFontSize), esc(orString(v.Color, d.TextColor)),
			esc(orString(v.TextAlign, d.TextAlign)), esc(orString(v.Content, d.SubheadingText)))
	case models.ParagraphBlock:
		for _, line := range strings.Split(orString(v.Content, d.ParagraphText), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			fmt.Fprintf(b, `<p style="margin:0 0 16px 0;font-size:%dpx;color:%s;line-height:1.6;text-align:%s;">%s</p>`+"\n",
				orInt(v.FontSize, d.ParagraphFontSize), esc(orString(v.Color, d.TextColor)),
				esc(orString(v.TextAlign, d.TextAlign)), esc(line))
		}
	case models.ImageBlock:
		fmt.Fprintf(b, `<div style="margin:20px 0;text-align:%s;"><img src="%s" alt="%s" style="max-width:100%%;height:auto;display:block;margin:0 auto;" /></div>`+"\n",
			esc(orString(v.TextAlign, d.ImageAlign)), esc(v.Src), esc(orString(v.Alt, d.ImageAlt)))
	case models.ButtonBlock:
		fmt.Fprintf(b, `<table cellpadding="0" cellspacing="0" border="0" style="margin:25px auto;">
<tr><td style="background-color:%s;padding:12px 24px;border-radius:6px;">
<a href="%s" style="color:%s;text-decoration:none;font-weight:bold;font-size:%dpx;">%s</a>
</td></tr>
</table>
`,
			esc(orString(v.BackgroundColor, d.ButtonBackground)), esc(orString(v.Link, d.ButtonLink)),
			esc(orString(v.Color, d.ButtonColor)), orInt(v.FontSize, d.ButtonFontSize),
			esc(orString(v.Content, d.ButtonLabel)))
	case models.LineBlock:
		fmt.Fprintf(b, `<hr style="border:none;height:%dpx;background-color:%s;margin:25px 0;" />`+"\n",
			orInt(v.StrokeWidth, d.LineWidth), esc(orString(v.StrokeColor, d.LineColor)))
	}
}

// RenderPlainText builds the text/plain alternative
func (r *CampaignRendererImpl) RenderPlainText(blocks []models.Block, subject, fromName, fromEmail string) string {
	var b strings.Builder
	d := blockDefaults

	b.WriteString(subject)
	b.WriteString("\n\n")

	if len(blocks) == 0 {
		b.WriteString("This email was sent from your campaign builder.\n\n")
	}

	for _, block := range blocks {
		switch v := block.(type) {
		case models.HeadingBlock:
			b.WriteString(v.Content)
		case models.SubheadingBlock:
			b.WriteString(v.Content)
		case models.ParagraphBlock:
			b.WriteString(v.Content)
		case models.ImageBlock:
			b.WriteString("[Image: " + orString(v.Alt, d.ImageAlt) + "]")
		case models.ButtonBlock:
			b.WriteString("[" + orString(v.Content, d.ButtonTextLabel) + "] - " + orString(v.Link, d.ButtonLink))
		case models.LineBlock:
			b.WriteString(plainTextSeparator)
		default:
			continue
		}
		b.WriteString("\n\n")
	}

	b.WriteString("\n\nSent by " + fromName + "\nEmail: " + fromEmail)
	return b.String()
}
