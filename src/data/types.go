package data

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSONMap stores an arbitrary object as a JSON column.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	return string(b), err
}

func (m *JSONMap) Scan(value any) error {
	return scanJSON(value, m)
}

// JSONList stores a list of strings as a JSON column.
type JSONList []string

func (l JSONList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *JSONList) Scan(value any) error {
	return scanJSON(value, l)
}

func scanJSON(value, dest any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("data: cannot scan %T into JSON column", value)
	}
}

// Project is one documented repository.
type Project struct {
	ID              string `gorm:"primaryKey;size:64"`
	Name            string `gorm:"size:255;not null"`
	RepoURL         string `gorm:"size:500;not null;index"`
	ConfluenceSpace string `gorm:"size:255"`
	Description     string `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Architecture stores one architecture analysis run for a project.
type Architecture struct {
	ID                   string `gorm:"primaryKey;size:64"`
	ProjectID            string `gorm:"size:64;not null;index"`
	ProjectStructure     JSONMap `gorm:"type:json"`
	KeyComponents        JSONList `gorm:"type:json"`
	ArchitecturePatterns JSONList `gorm:"type:json"`
	Dependencies         JSONMap `gorm:"type:json"`
	MermaidDiagrams      JSONList `gorm:"type:json"`
	TotalFiles           int
	ConfluenceContent    string `gorm:"type:longtext"`
	Summary              string `gorm:"type:text"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (a *Architecture) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Component stores one component analysis for a project.
type Component struct {
	ID                 string `gorm:"primaryKey;size:64"`
	ProjectID          string `gorm:"size:64;not null;index"`
	Name               string `gorm:"size:255;not null"`
	Type               string `gorm:"size:100"`
	FilePath           string `gorm:"size:500"`
	Description        string `gorm:"type:text"`
	Interfaces         JSONList `gorm:"type:json"`
	Dependencies       JSONList `gorm:"type:json"`
	UsageExamples      JSONList `gorm:"type:json"`
	Complexity         string `gorm:"size:50"`
	ConfluenceContent  string `gorm:"type:longtext"`
	ConfluencePageID   string `gorm:"size:100"`
	IsActive           bool   `gorm:"default:true"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (c *Component) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Documentation is one generated document, optionally published to Confluence.
type Documentation struct {
	ID                string `gorm:"primaryKey;size:64"`
	ProjectID         string `gorm:"size:64;not null;index"`
	DocType           string `gorm:"size:100;not null"`
	Title             string `gorm:"size:500;not null"`
	Version           string `gorm:"size:50;default:1.0.0"`
	Content           string `gorm:"type:longtext"`
	MarkdownContent   string `gorm:"type:longtext"`
	ContentHash       string `gorm:"size:32;index"`
	ConfluencePageID  string `gorm:"size:100"`
	ConfluencePageURL string `gorm:"size:1000"`
	ConfluenceSpace   string `gorm:"size:255"`
	AgentType         string `gorm:"size:100"`
	GenerationJobID   string `gorm:"size:255;index"`
	Status            string `gorm:"size:50;default:draft"`
	LastPublished     *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (d *Documentation) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// MermaidDiagram keeps a diagram's source alongside its owning document.
type MermaidDiagram struct {
	ID              string `gorm:"primaryKey;size:64"`
	ProjectID       string `gorm:"size:64;not null;index"`
	Name            string `gorm:"size:255;not null"`
	DiagramType     string `gorm:"size:100;not null"`
	Description     string `gorm:"type:text"`
	MermaidCode     string `gorm:"type:longtext;not null"`
	DocumentationID string `gorm:"size:64"`
	ComponentID     string `gorm:"size:64"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (m *MermaidDiagram) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// AgentRun records one agent execution for auditing.
type AgentRun struct {
	ID                   string `gorm:"primaryKey;size:64"`
	ProjectID            string `gorm:"size:64;not null;index"`
	AgentType            string `gorm:"size:100;not null"`
	AgentVersion         string `gorm:"size:50;default:1.0.0"`
	JobID                string `gorm:"size:255;not null;index"`
	Status               string `gorm:"size:50;not null"`
	InputParams          JSONMap `gorm:"type:json"`
	OutputData           JSONMap `gorm:"type:json"`
	ErrorMessage         string `gorm:"type:text"`
	ExecutionTimeSeconds int
	StartedAt            time.Time
	CompletedAt          *time.Time
	CreatedAt            time.Time
}

func (a *AgentRun) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// MCPRequest records one MCP tool invocation.
type MCPRequest struct {
	ID             string `gorm:"primaryKey;size:64"`
	Method         string `gorm:"size:100;not null"`
	Endpoint       string `gorm:"size:500;not null"`
	RequestParams  JSONMap `gorm:"type:json"`
	ResponseData   JSONMap `gorm:"type:json"`
	ResponseStatus int
	ResponseTimeMs int
	ClientID       string `gorm:"size:255"`
	UserAgent      string `gorm:"size:500"`
	CreatedAt      time.Time
}

func (m *MCPRequest) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Setting is a name/value configuration row; env vars act as fallback.
type Setting struct {
	ID    uint   `gorm:"primaryKey"`
	Name  string `gorm:"size:128;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// Job is one queued documentation generation request.
type Job struct {
	ID           string `gorm:"primaryKey;size:64"`
	ProjectID    string `gorm:"size:64;index"`
	RepoURL      string `gorm:"size:500;not null"`
	Space        string `gorm:"size:255"`
	ExportFormat string `gorm:"size:50;default:confluence"`
	Status       string `gorm:"size:50;default:queued"`
	ErrorMessage string `gorm:"type:text"`
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

// Job lifecycle states.
const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)
