// Package htmltomarkdown converts listing descriptions from HTML to
// Markdown using html-to-markdown.
package htmltomarkdown

import (
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/estate"
)

var _ estate.Converter = (*Converter)(nil)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Converter turns description fragments into Markdown. Listing sites wrap
// descriptions in buttons and images that carry no text, so those are
// dropped.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	for _, tag := range []string{"button", "img", "svg", "iframe"} {
		conv.Register.TagType(tag, converter.TagTypeRemove, converter.PriorityStandard)
	}
	return &Converter{conv: conv}
}

// Convert transforms an HTML fragment into Markdown. A blank fragment
// converts to an empty string, since many listings have no description.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}

	md, err := c.conv.ConvertString(html)
	if err != nil {
		return "", estate.Errorf(estate.EINVALID, "convert description: %v", err)
	}
	return strings.TrimSpace(blankRuns.ReplaceAllString(md, "\n\n")), nil
}
