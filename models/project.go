package models

import "unicode/utf8"

// ProjectType is the annotation task a project is set up for.
type ProjectType string

const (
	DocumentClassification ProjectType = "DocumentClassification"
	SequenceLabeling       ProjectType = "SequenceLabeling"
	Seq2seq                ProjectType = "Seq2seq"
	Speech2text            ProjectType = "Speech2text"
)

// ProjectTypes lists every supported project type.
var ProjectTypes = []ProjectType{DocumentClassification, SequenceLabeling, Seq2seq, Speech2text}

type projectTypeInfo struct {
	bundle string
	kind   AnnotationKind
	image  string
}

var projectTypeInfos = map[ProjectType]projectTypeInfo{
	DocumentClassification: {"document_classification", KindDocument, "images/cats/text_classification.jpg"},
	SequenceLabeling:       {"sequence_labeling", KindSequence, "images/cats/sequence_labeling.jpg"},
	Seq2seq:                {"seq2seq", KindSeq2seq, "images/cats/seq2seq.jpg"},
	Speech2text:            {"speech2text", KindSpeech2text, "images/cats/speech2text.jpg"},
}

func (t ProjectType) Valid() bool {
	_, ok := projectTypeInfos[t]
	return ok
}

// BundleName is the front-end bundle that serves the annotation screen.
func (t ProjectType) BundleName() string {
	return projectTypeInfos[t].bundle
}

// AnnotationKind selects the annotation table and repository.
func (t ProjectType) AnnotationKind() AnnotationKind {
	return projectTypeInfos[t].kind
}

// Image is the static path of the project card image.
func (t ProjectType) Image() string {
	return projectTypeInfos[t].image
}

// UsesLabels reports whether annotations of this type reference labels.
func (t ProjectType) UsesLabels() bool {
	k := t.AnnotationKind()
	return k == KindDocument || k == KindSequence
}

// Clean validates a project before it is stored.
func (p *Project) Clean() error {
	verr := &ValidationError{}
	if p.Name == "" {
		verr.Add("name", "This field may not be blank.")
	}
	if utf8.RuneCountInString(p.Name) > 100 {
		verr.Add("name", "Ensure this field has no more than 100 characters.")
	}
	if !p.ProjectType.Valid() {
		verr.Add("project_type", "\""+string(p.ProjectType)+"\" is not a valid choice.")
	}
	return verr.OrNil()
}

// Response decorates a project with its type-derived presentation fields.
func (p Project) Response(role string) ProjectResponse {
	return ProjectResponse{
		Project:         p,
		BundleName:      p.ProjectType.BundleName(),
		Image:           p.ProjectType.Image(),
		CurrentUserRole: role,
	}
}
