// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package parsers

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/danielhkuo/doclabel/models"
)

// Upload formats
const (
	FormatPlain = "plain"
	FormatCSV   = "csv"
	FormatJSONL = "jsonl"
	FormatCoNLL = "conll"
)

// Formats lists the accepted upload formats.
var Formats = []string{FormatPlain, FormatCSV, FormatJSONL, FormatCoNLL}

var ErrUnknownFormat = errors.New("unknown upload format")

const maxLine = 1 << 20

// FileParseError points at the line of the upload that could not be read.
type FileParseError struct {
	Line    int
	Message string
}

func (e *FileParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

func lineError(line int, format string, args ...any) *FileParseError {
	return &FileParseError{Line: line, Message: fmt.Sprintf(format, args...)}
}

// Parse reads an upload in the given format.
func Parse(format string, r io.Reader) ([]models.ImportedDocument, error) {
	var (
		docs []models.ImportedDocument
		err  error
	)
	switch format {
	case FormatPlain:
		docs, err = parsePlain(r)
	case FormatCSV:
		docs, err = parseCSV(r)
	case FormatJSONL:
		docs, err = parseJSONL(r)
	case FormatCoNLL:
		docs, err = parseCoNLL(r)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, lineError(1, "the file contains no documents")
	}
	return docs, nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	return sc
}

// parsePlain makes one document of every non-blank line.
func parsePlain(r io.Reader) ([]models.ImportedDocument, error) {
	var docs []models.ImportedDocument
	sc := newScanner(r)
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		docs = append(docs, models.ImportedDocument{Text: text})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read plain text: %w", err)
	}
	return docs, nil
}

// parseCSV expects a header naming a text column and, optionally, a
// label column. Remaining columns end up in the document meta.
func parseCSV(r io.Reader) ([]models.ImportedDocument, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, csvError(err)
	}

	textCol, labelCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "text":
			textCol = i
		case "label":
			labelCol = i
		}
	}
	if textCol < 0 {
		return nil, lineError(1, "header must contain a %q column", "text")
	}

	var docs []models.ImportedDocument
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		line, _ := cr.FieldPos(0)

		doc := models.ImportedDocument{Text: strings.TrimSpace(record[textCol])}
		if doc.Text == "" {
			return nil, lineError(line, "text may not be blank")
		}
		for i, value := range record {
			switch {
			case i == textCol:
			case i == labelCol:
				if label := strings.TrimSpace(value); label != "" {
					doc.Labels = append(doc.Labels, label)
				}
			default:
				if doc.Meta == nil {
					doc.Meta = map[string]any{}
				}
				doc.Meta[header[i]] = value
			}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func csvError(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return lineError(perr.Line, "%v", perr.Err)
	}
	return fmt.Errorf("read csv: %w", err)
}

type jsonlRecord struct {
	Text   *string           `json:"text"`
	Labels []json.RawMessage `json:"labels"`
	Meta   map[string]any    `json:"meta,omitempty"`
}

// parseJSONL reads one JSON object per line. Labels are either plain
// strings or [start, end, label] triples.
func parseJSONL(r io.Reader) ([]models.ImportedDocument, error) {
	var docs []models.ImportedDocument
	sc := newScanner(r)
	for line := 1; sc.Scan(); line++ {
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}

		var rec jsonlRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, lineError(line, "invalid JSON: %v", err)
		}
		if rec.Text == nil || strings.TrimSpace(*rec.Text) == "" {
			return nil, lineError(line, "text may not be blank")
		}

		doc := models.ImportedDocument{Text: *rec.Text, Meta: rec.Meta}
		for _, label := range rec.Labels {
			var name string
			if err := json.Unmarshal(label, &name); err == nil {
				doc.Labels = append(doc.Labels, name)
				continue
			}
			span, err := decodeSpan(label)
			if err != nil {
				return nil, lineError(line, "%v", err)
			}
			if span.EndOffset > utf8.RuneCountInString(doc.Text) {
				return nil, lineError(line, "span [%d, %d] is outside the text", span.StartOffset, span.EndOffset)
			}
			doc.Spans = append(doc.Spans, span)
		}
		docs = append(docs, doc)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read jsonl: %w", err)
	}
	return docs, nil
}

func decodeSpan(raw json.RawMessage) (models.ImportedSpan, error) {
	var triple []json.RawMessage
	if err := json.Unmarshal(raw, &triple); err != nil || len(triple) != 3 {
		return models.ImportedSpan{}, fmt.Errorf("label must be a string or [start, end, label], got %s", raw)
	}
	var span models.ImportedSpan
	if err := json.Unmarshal(triple[0], &span.StartOffset); err != nil {
		return span, fmt.Errorf("span start must be an integer, got %s", triple[0])
	}
	if err := json.Unmarshal(triple[1], &span.EndOffset); err != nil {
		return span, fmt.Errorf("span end must be an integer, got %s", triple[1])
	}
	if err := json.Unmarshal(triple[2], &span.Label); err != nil || span.Label == "" {
		return span, fmt.Errorf("span label must be a string, got %s", triple[2])
	}
	if span.StartOffset < 0 || span.StartOffset >= span.EndOffset {
		return span, fmt.Errorf("span [%d, %d] is empty", span.StartOffset, span.EndOffset)
	}
	return span, nil
}

// parseCoNLL reads "token<whitespace>tag" lines with BIO tags. A blank
// line ends a document; tokens are joined with single spaces.
func parseCoNLL(r io.Reader) ([]models.ImportedDocument, error) {
	var (
		docs    []models.ImportedDocument
		b       conllBuilder
		sc      = newScanner(r)
		lineNum int
	)
	for sc.Scan() {
		lineNum++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			docs = b.flush(docs)
			continue
		}
		if strings.HasPrefix(raw, "-DOCSTART-") {
			continue
		}

		fields := strings.Fields(raw)
		if len(fields) < 2 {
			return nil, lineError(lineNum, "expected a token and a tag, got %q", raw)
		}
		if err := b.add(fields[0], fields[len(fields)-1]); err != nil {
			return nil, lineError(lineNum, "%v", err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read conll: %w", err)
	}
	return b.flush(docs), nil
}

// Span offsets count characters, not bytes.
type conllBuilder struct {
	text  strings.Builder
	runes int
	spans []models.ImportedSpan
	open  *models.ImportedSpan
}

func (b *conllBuilder) add(token, tag string) error {
	if b.text.Len() > 0 {
		b.text.WriteByte(' ')
		b.runes++
	}
	start := b.runes
	b.text.WriteString(token)
	b.runes += utf8.RuneCountInString(token)
	end := b.runes

	switch {
	case tag == "O":
		b.close()
	case strings.HasPrefix(tag, "B-"):
		b.close()
		b.open = &models.ImportedSpan{StartOffset: start, EndOffset: end, Label: tag[2:]}
	case strings.HasPrefix(tag, "I-"):
		if b.open != nil && b.open.Label == tag[2:] {
			b.open.EndOffset = end
		} else {
			// An I- tag without a matching B- starts a new entity.
			b.close()
			b.open = &models.ImportedSpan{StartOffset: start, EndOffset: end, Label: tag[2:]}
		}
	default:
		return fmt.Errorf("unknown tag %q", tag)
	}
	if b.open != nil && b.open.Label == "" {
		return fmt.Errorf("tag %q has no entity type", tag)
	}
	return nil
}

func (b *conllBuilder) close() {
	if b.open != nil {
		b.spans = append(b.spans, *b.open)
		b.open = nil
	}
}

func (b *conllBuilder) flush(docs []models.ImportedDocument) []models.ImportedDocument {
	b.close()
	if b.text.Len() > 0 {
		docs = append(docs, models.ImportedDocument{Text: b.text.String(), Spans: b.spans})
	}
	b.text.Reset()
	b.runes = 0
	b.spans = nil
	return docs
}

// WriteJSONL writes documents in the jsonl upload format, so an export
// can be uploaded again.
func WriteJSONL(w io.Writer, docs []models.ImportedDocument) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, doc := range docs {
		labels := make([]any, 0, len(doc.Labels)+len(doc.Spans))
		for _, l := range doc.Labels {
			labels = append(labels, l)
		}
		for _, s := range doc.Spans {
			labels = append(labels, []any{s.StartOffset, s.EndOffset, s.Label})
		}
		rec := struct {
			Text   string         `json:"text"`
			Labels []any          `json:"labels"`
			Meta   map[string]any `json:"meta,omitempty"`
		}{doc.Text, labels, doc.Meta}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("write jsonl: %w", err)
		}
	}
	return nil
}
