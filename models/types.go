package models

import (
	"encoding/json"
	"time"
)

// Role names
const (
	RoleProjectAdmin       = "project_admin"
	RoleAnnotator          = "annotator"
	RoleAnnotationApprover = "annotation_approver"
)

// Label shortcut prefixes
const (
	PrefixCtrl      = "ctrl"
	PrefixShift     = "shift"
	PrefixCtrlShift = "ctrl shift"
)

// Label colors
const (
	DefaultBackgroundColor = "#209cee"
	DefaultTextColor       = "#ffffff"
)

// Domain types

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	IsSuperuser  bool      `json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`
}

type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type RoleMapping struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user"`
	Username  string    `json:"username"`
	ProjectID int64     `json:"project"`
	RoleID    int64     `json:"role"`
	RoleName  string    `json:"rolename"`
	CreatedAt time.Time `json:"created_at"`
}

type Project struct {
	ID                      int64       `json:"id"`
	Name                    string      `json:"name"`
	Description             string      `json:"description"`
	Guideline               string      `json:"guideline"`
	ProjectType             ProjectType `json:"project_type"`
	RandomizeDocumentOrder  bool        `json:"randomize_document_order"`
	CollaborativeAnnotation bool        `json:"collaborative_annotation"`
	Users                   []int64     `json:"users"`
	CreatedAt               time.Time   `json:"created_at"`
	UpdatedAt               time.Time   `json:"updated_at"`
}

type Document struct {
	ID                    int64           `json:"id"`
	ProjectID             int64           `json:"project"`
	Text                  string          `json:"text"`
	Meta                  json.RawMessage `json:"meta"`
	AnnotationsApprovedBy *int64          `json:"annotation_approver"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

type Label struct {
	ID              int64     `json:"id"`
	ProjectID       int64     `json:"project"`
	Text            string    `json:"text"`
	PrefixKey       *string   `json:"prefix_key"`
	SuffixKey       *string   `json:"suffix_key"`
	BackgroundColor string    `json:"background_color"`
	TextColor       string    `json:"text_color"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type DocumentFeedback struct {
	ID         int64     `json:"id"`
	DocumentID int64     `json:"document"`
	UserID     int64     `json:"user"`
	Username   string    `json:"username"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Request types

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreateUserRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	IsSuperuser bool   `json:"is_superuser"`
}

type CreateProjectRequest struct {
	Name                    string      `json:"name"`
	Description             string      `json:"description"`
	Guideline               string      `json:"guideline"`
	ProjectType             ProjectType `json:"project_type"`
	RandomizeDocumentOrder  bool        `json:"randomize_document_order"`
	CollaborativeAnnotation bool        `json:"collaborative_annotation"`
}

// Nil fields are left unchanged.
type UpdateProjectRequest struct {
	Name                    *string `json:"name"`
	Description             *string `json:"description"`
	Guideline               *string `json:"guideline"`
	RandomizeDocumentOrder  *bool   `json:"randomize_document_order"`
	CollaborativeAnnotation *bool   `json:"collaborative_annotation"`
}

type AssignRoleRequest struct {
	UserID int64  `json:"user"`
	Role   string `json:"role"`
}

type LabelRequest struct {
	Text            string  `json:"text"`
	PrefixKey       *string `json:"prefix_key"`
	SuffixKey       *string `json:"suffix_key"`
	BackgroundColor string  `json:"background_color"`
	TextColor       string  `json:"text_color"`
}

type CreateDocumentRequest struct {
	Text string          `json:"text"`
	Meta json.RawMessage `json:"meta"`
}

type UpdateDocumentRequest struct {
	Text *string         `json:"text"`
	Meta json.RawMessage `json:"meta"`
}

type ApproveRequest struct {
	Approved bool `json:"approved"`
}

// Both doc_id and document are accepted; the path wins when they disagree.
type FeedbackRequest struct {
	Text       string `json:"text"`
	DocID      int64  `json:"doc_id"`
	DocumentID int64  `json:"document"`
}

// Response types

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type ProjectResponse struct {
	Project
	BundleName      string `json:"bundle_name"`
	Image           string `json:"image"`
	CurrentUserRole string `json:"current_users_role,omitempty"`
}

type FeedbackResponse struct {
	ID       int64  `json:"id"`
	Text     string `json:"text"`
	Document int64  `json:"document"`
	Username string `json:"username"`
}

type FeedbackSummary struct {
	Text     string `json:"text"`
	User     string `json:"user"`
	Document int64  `json:"document"`
}

type DocumentResponse struct {
	Document
	Annotations      []Annotation     `json:"annotations"`
	DocumentFeedback *FeedbackSummary `json:"document_feedback"`
}

type DocumentList struct {
	Count   int                `json:"count"`
	Results []DocumentResponse `json:"results"`
}

type FeedbackList struct {
	Count   int                `json:"count"`
	Results []FeedbackResponse `json:"results"`
}

type Statistics struct {
	Total     int            `json:"total"`
	Remaining int            `json:"remaining"`
	Approved  int            `json:"approved"`
	Labels    map[string]int `json:"label"`
	Users     map[string]int `json:"user"`
}

type UploadResponse struct {
	Documents   int `json:"documents"`
	Labels      int `json:"labels"`
	Annotations int `json:"annotations"`
}

// Error response

type ErrorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message,omitempty"`
	Fields  map[string][]string `json:"fields,omitempty"`
}
