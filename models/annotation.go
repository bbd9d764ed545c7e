package models

import "time"

// AnnotationKind names an annotation table.
type AnnotationKind string

const (
	KindDocument    AnnotationKind = "document"
	KindSequence    AnnotationKind = "sequence"
	KindSeq2seq     AnnotationKind = "seq2seq"
	KindSpeech2text AnnotationKind = "speech2text"
)

// Annotation is implemented by the pointer types of every annotation kind.
type Annotation interface {
	Kind() AnnotationKind
	Base() *AnnotationBase
	Clean() error
}

// Labeled is implemented by annotations that point at a project label.
type Labeled interface {
	LabelRef() int64
}

type AnnotationBase struct {
	ID         int64     `json:"id"`
	DocumentID int64     `json:"document"`
	UserID     int64     `json:"user"`
	Prob       float64   `json:"prob"`
	Manual     bool      `json:"manual"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (b *AnnotationBase) Base() *AnnotationBase { return b }

func (b *AnnotationBase) clean(verr *ValidationError) {
	if b.Prob < 0 || b.Prob > 1 {
		verr.Add("prob", "Ensure this value is between 0 and 1.")
	}
}

type DocumentAnnotation struct {
	AnnotationBase
	LabelID int64 `json:"label"`
}

func (*DocumentAnnotation) Kind() AnnotationKind { return KindDocument }
func (a *DocumentAnnotation) LabelRef() int64 { return a.LabelID }

func (a *DocumentAnnotation) Clean() error {
	verr := &ValidationError{}
	a.clean(verr)
	if a.LabelID == 0 {
		verr.Add("label", "This field is required.")
	}
	return verr.OrNil()
}

type SequenceAnnotation struct {
	AnnotationBase
	LabelID     int64 `json:"label"`
	StartOffset int   `json:"start_offset"`
	EndOffset   int   `json:"end_offset"`
}

func (*SequenceAnnotation) Kind() AnnotationKind { return KindSequence }
func (a *SequenceAnnotation) LabelRef() int64 { return a.LabelID }

// Clean requires a non-empty span: start_offset < end_offset.
func (a *SequenceAnnotation) Clean() error {
	verr := &ValidationError{}
	a.clean(verr)
	if a.LabelID == 0 {
		verr.Add("label", "This field is required.")
	}
	if a.StartOffset < 0 {
		verr.Add("start_offset", "Ensure this value is greater than or equal to 0.")
	}
	if a.StartOffset >= a.EndOffset {
		verr.Add(NonFieldErrors, "start_offset must be smaller than end_offset.")
	}
	return verr.OrNil()
}

type Seq2seqAnnotation struct {
	AnnotationBase
	Text string `json:"text"`
}

func (*Seq2seqAnnotation) Kind() AnnotationKind { return KindSeq2seq }

func (a *Seq2seqAnnotation) Clean() error {
	verr := &ValidationError{}
	a.clean(verr)
	if a.Text == "" {
		verr.Add("text", "This field may not be blank.")
	}
	return verr.OrNil()
}

type Speech2textAnnotation struct {
	AnnotationBase
	Text string `json:"text"`
}

func (*Speech2textAnnotation) Kind() AnnotationKind { return KindSpeech2text }

func (a *Speech2textAnnotation) Clean() error {
	verr := &ValidationError{}
	a.clean(verr)
	if a.Text == "" {
		verr.Add("text", "This field may not be blank.")
	}
	return verr.OrNil()
}

// ImportedDocument is one document read from an upload, with the
// annotations that came with it.
type ImportedDocument struct {
	Text   string
	Meta   map[string]any
	Labels []string
	Spans  []ImportedSpan
}

type ImportedSpan struct {
	StartOffset int
	EndOffset   int
	Label       string
}
