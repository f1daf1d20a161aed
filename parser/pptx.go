package parser

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
)

// PPTXParser reads slide text paragraphs, slide by slide, as lines.
type PPTXParser struct{}

func (p *PPTXParser) SupportedFormats() []string { return []string{"pptx"} }

func (p *PPTXParser) Kind() Kind { return KindLines }

func (p *PPTXParser) Parse(ctx context.Context, path string) (*ParseResult, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening PPTX: %w", err)
	}
	defer r.Close()

	// Collect slide files (ppt/slides/slide1.xml, slide2.xml, ...)
	slideFiles := make(map[int]*zip.File)
	for _, f := range r.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			if num := extractSlideNumber(f.Name); num > 0 {
				slideFiles[num] = f
			}
		}
	}

	nums := make([]int, 0, len(slideFiles))
	for n := range slideFiles {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	var lines Lines
	for _, num := range nums {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rc, err := slideFiles[num].Open()
		if err != nil {
			slog.Debug("pptx: failed to open slide", "slide", num, "error", err)
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			slog.Debug("pptx: failed to read slide", "slide", num, "error", err)
			continue
		}
		lines = append(lines, extractPPTXSlideLines(data)...)
	}

	return &ParseResult{
		Kind:   KindLines,
		Lines:  lines,
		Method: "native",
		Metadata: map[string]string{
			"slide_count": strconv.Itoa(len(nums)),
		},
	}, nil
}

// pptxSlide simplified XML structure
type pptxSlide struct {
	CSld struct {
		SpTree struct {
			SPs []pptxSP `xml:"sp"`
		} `xml:"spTree"`
	} `xml:"cSld"`
}

type pptxSP struct {
	TxBody *pptxTxBody `xml:"txBody"`
}

type pptxTxBody struct {
	Paras []pptxAPara `xml:"p"`
}

type pptxAPara struct {
	Runs []pptxARun `xml:"r"`
}

type pptxARun struct {
	Text string `xml:"t"`
}

func extractPPTXSlideLines(data []byte) []string {
	var slide pptxSlide
	if err := xml.Unmarshal(data, &slide); err != nil {
		return nil
	}

	var lines []string
	for _, sp := range slide.CSld.SpTree.SPs {
		if sp.TxBody == nil {
			continue
		}
		for _, para := range sp.TxBody.Paras {
			var line strings.Builder
			for _, run := range para.Runs {
				line.WriteString(run.Text)
			}
			if t := strings.TrimSpace(line.String()); t != "" {
				lines = append(lines, t)
			}
		}
	}
	return lines
}

func extractSlideNumber(name string) int {
	// Extract number from "ppt/slides/slide1.xml"
	name = strings.TrimPrefix(name, "ppt/slides/slide")
	name = strings.TrimSuffix(name, ".xml")
	num, err := strconv.Atoi(name)
	if err != nil {
		return 0
	}
	return num
}
