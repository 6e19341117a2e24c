package row

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Codec converts rows to and from the text stored as record values.
type Codec interface {
	Serialize(schema Schema, r *Row) (string, error)
	Parse(schema Schema, text string) (*Row, error)
}

// XMLCodec writes rows as <row><col>1</col><null/></row>.
type XMLCodec struct{}

func (XMLCodec) Serialize(schema Schema, r *Row) (string, error) {
	if err := Validate(schema, r); err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("<row>")
	for i, v := range r.values {
		if v == nil {
			sb.WriteString("<null/>")
			continue
		}
		sb.WriteString("<col>")
		if err := xml.EscapeText(&sb, []byte(schema[i].format(v))); err != nil {
			return "", err
		}
		sb.WriteString("</col>")
	}
	sb.WriteString("</row>")
	return sb.String(), nil
}

func (XMLCodec) Parse(schema Schema, text string) (*Row, error) {
	p := &xmlParser{dec: xml.NewDecoder(strings.NewReader(text))}
	r := New(schema)

	if err := p.expectStart("row"); err != nil {
		return nil, err
	}
	for i := 0; ; i++ {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.EndElement:
			if t.Name.Local != "row" {
				return nil, p.errorf("unexpected </%s>", t.Name.Local)
			}
			if i != len(schema) {
				return nil, p.errorf("got %d columns, want %d", i, len(schema))
			}
			if err := p.expectEOF(); err != nil {
				return nil, err
			}
			return r, nil
		case xml.StartElement:
			if i >= len(schema) {
				return nil, p.errorf("more than %d columns", len(schema))
			}
			switch t.Name.Local {
			case "null":
				if err := p.expectEnd("null"); err != nil {
					return nil, err
				}
			case "col":
				s, err := p.text("col")
				if err != nil {
					return nil, err
				}
				v, err := schema[i].parse(s)
				if err != nil {
					return nil, fmt.Errorf("%w: column %d: %v", ErrParse, i, err)
				}
				r.values[i] = v
			default:
				return nil, p.errorf("unexpected <%s>", t.Name.Local)
			}
		default:
			return nil, p.errorf("unexpected %T", tok)
		}
	}
}

type xmlParser struct {
	dec *xml.Decoder
}

func (p *xmlParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrParse}, args...)...)
}

// next skips whitespace, comments and processing instructions.
func (p *xmlParser) next() (xml.Token, error) {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, p.errorf("unexpected end of text")
			}
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			if strings.TrimSpace(string(t)) == "" {
				continue
			}
		case xml.Comment, xml.ProcInst:
			continue
		}
		return tok, nil
	}
}

func (p *xmlParser) expectStart(name string) error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	if t, ok := tok.(xml.StartElement); !ok || t.Name.Local != name {
		return p.errorf("expected <%s>", name)
	}
	return nil
}

func (p *xmlParser) expectEnd(name string) error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	if t, ok := tok.(xml.EndElement); !ok || t.Name.Local != name {
		return p.errorf("expected </%s>", name)
	}
	return nil
}

// text collects character data up to the closing tag, keeping whitespace.
func (p *xmlParser) text(name string) (string, error) {
	var sb strings.Builder
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrParse, err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			if t.Name.Local != name {
				return "", p.errorf("unexpected </%s>", t.Name.Local)
			}
			return sb.String(), nil
		default:
			return "", p.errorf("unexpected %T inside <%s>", tok, name)
		}
	}
}

func (p *xmlParser) expectEOF() error {
	for {
		tok, err := p.dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrParse, err)
		}
		if t, ok := tok.(xml.CharData); ok && strings.TrimSpace(string(t)) == "" {
			continue
		}
		return p.errorf("trailing content after </row>")
	}
}
