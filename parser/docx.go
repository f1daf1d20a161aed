package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const wordprocessingNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// DOCXParser reads body paragraphs of a Word document as lines. Table
// content is skipped; explicit line breaks inside a paragraph start a new
// line.
type DOCXParser struct{}

func (p *DOCXParser) SupportedFormats() []string { return []string{"docx"} }

func (p *DOCXParser) Kind() Kind { return KindLines }

func (p *DOCXParser) Parse(ctx context.Context, path string) (*ParseResult, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening DOCX: %w", err)
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("word/document.xml not found in DOCX")
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("opening document.xml: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	lines, err := docxParagraphLines(data)
	if err != nil {
		return nil, fmt.Errorf("parsing DOCX XML: %w", err)
	}

	return &ParseResult{
		Kind:   KindLines,
		Lines:  lines,
		Method: "native",
	}, nil
}

func isWordElement(n xml.Name, local string) bool {
	return n.Local == local && (n.Space == wordprocessingNS || n.Space == "")
}

// docxParagraphLines walks document.xml and returns the trimmed, non-empty
// text of every body paragraph in order.
func docxParagraphLines(data []byte) ([]string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var (
		lines     []string
		cur       strings.Builder
		tableDeep int
		paraDeep  int
		runDeep   int
		inText    bool
	)
	flush := func() {
		if t := strings.TrimSpace(cur.String()); t != "" {
			lines = append(lines, t)
		}
		cur.Reset()
	}

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case isWordElement(t.Name, "tbl"):
				tableDeep++
			case tableDeep > 0:
			case isWordElement(t.Name, "p"):
				paraDeep++
			case isWordElement(t.Name, "r"):
				runDeep++
			case runDeep > 0 && isWordElement(t.Name, "t"):
				inText = true
			case runDeep > 0 && isWordElement(t.Name, "tab"):
				cur.WriteByte('\t')
			case runDeep > 0 && (isWordElement(t.Name, "br") || isWordElement(t.Name, "cr")):
				flush()
			}

		case xml.EndElement:
			switch {
			case isWordElement(t.Name, "tbl"):
				tableDeep--
			case tableDeep > 0:
			case isWordElement(t.Name, "p"):
				paraDeep--
				if paraDeep == 0 {
					flush()
				}
			case isWordElement(t.Name, "r"):
				runDeep--
			case isWordElement(t.Name, "t"):
				inText = false
			}

		case xml.CharData:
			if inText && paraDeep > 0 {
				cur.Write(t)
			}
		}
	}
	return lines, nil
}
