package data

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Store wraps the relational persistence operations used by the generator,
// API, and MCP surfaces.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB { return s.db }

// EnsureProject returns the project for the repo URL, creating it when absent.
func (s *Store) EnsureProject(name, repoURL, space, description string) (*Project, error) {
	var project Project
	err := s.db.Where("repo_url = ?", repoURL).First(&project).Error
	if err == nil {
		return &project, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("data: lookup project: %w", err)
	}

	project = Project{
		Name:            name,
		RepoURL:         repoURL,
		ConfluenceSpace: space,
		Description:     description,
	}
	if err := s.db.Create(&project).Error; err != nil {
		return nil, fmt.Errorf("data: create project: %w", err)
	}
	return &project, nil
}

func (s *Store) ProjectByRepoURL(repoURL string) (*Project, error) {
	var project Project
	err := s.db.Where("repo_url = ?", repoURL).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *Store) Project(id string) (*Project, error) {
	var project Project
	err := s.db.First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *Store) ListProjects() ([]Project, error) {
	var projects []Project
	err := s.db.Order("created_at desc").Find(&projects).Error
	return projects, err
}

// StoreArchitecture persists one architecture analysis result.
func (s *Store) StoreArchitecture(projectID string, arch *Architecture) error {
	arch.ProjectID = projectID
	return s.db.Create(arch).Error
}

// LatestArchitecture returns the most recent analysis for a project.
func (s *Store) LatestArchitecture(projectID string) (*Architecture, error) {
	var arch Architecture
	err := s.db.Where("project_id = ?", projectID).
		Order("created_at desc").First(&arch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &arch, nil
}

// StoreComponent persists one component analysis.
func (s *Store) StoreComponent(projectID string, comp *Component) error {
	comp.ProjectID = projectID
	comp.IsActive = true
	return s.db.Create(comp).Error
}

func (s *Store) ProjectComponents(projectID string) ([]Component, error) {
	var comps []Component
	err := s.db.Where("project_id = ? AND is_active = ?", projectID, true).
		Order("name").Find(&comps).Error
	return comps, err
}

func (s *Store) ComponentByName(projectID, name string) (*Component, error) {
	var comp Component
	err := s.db.Where("project_id = ? AND name = ? AND is_active = ?", projectID, name, true).
		First(&comp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &comp, nil
}

// SearchComponents matches components by name or description substring.
func (s *Store) SearchComponents(projectID, query string) ([]Component, error) {
	var comps []Component
	like := "%" + query + "%"
	err := s.db.Where("project_id = ? AND is_active = ?", projectID, true).
		Where("name LIKE ? OR description LIKE ?", like, like).
		Find(&comps).Error
	return comps, err
}

// UpdateComponentPageID records the Confluence page a component was published to.
func (s *Store) UpdateComponentPageID(componentID, pageID string) error {
	return s.db.Model(&Component{}).Where("id = ?", componentID).
		Update("confluence_page_id", pageID).Error
}

// StoreDocumentation persists one generated document.
func (s *Store) StoreDocumentation(doc *Documentation) error {
	return s.db.Create(doc).Error
}

// DocumentationByTypeAndTitle fetches the latest document of a type for a
// project, used to compare content hashes before republishing.
func (s *Store) DocumentationByTypeAndTitle(projectID, docType, title string) (*Documentation, error) {
	var doc Documentation
	err := s.db.Where("project_id = ? AND doc_type = ? AND title = ?", projectID, docType, title).
		Order("created_at desc").First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// MarkPublished stamps the Confluence coordinates on a document.
func (s *Store) MarkPublished(docID, pageID, pageURL string) error {
	now := time.Now().UTC()
	return s.db.Model(&Documentation{}).Where("id = ?", docID).Updates(map[string]any{
		"confluence_page_id":  pageID,
		"confluence_page_url": pageURL,
		"status":              "published",
		"last_published":      now,
	}).Error
}

// StoreDiagram persists a Mermaid diagram.
func (s *Store) StoreDiagram(diagram *MermaidDiagram) error {
	return s.db.Create(diagram).Error
}

// TrackAgentRun records an agent execution; completed and failed runs get a
// completion timestamp.
func (s *Store) TrackAgentRun(run *AgentRun) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.Status == "completed" || run.Status == "failed" {
		now := time.Now().UTC()
		run.CompletedAt = &now
	}
	return s.db.Create(run).Error
}

// TrackMCPRequest records one MCP invocation.
func (s *Store) TrackMCPRequest(req *MCPRequest) error {
	return s.db.Create(req).Error
}

// ProjectStatistics aggregates counts for one project.
type ProjectStatistics struct {
	ComponentCount     int64 `json:"component_count"`
	DocumentationCount int64 `json:"documentation_count"`
	TotalAgentRuns     int64 `json:"total_agent_runs"`
	SuccessfulRuns     int64 `json:"successful_runs"`
	FailedRuns         int64 `json:"failed_runs"`
}

func (s *Store) ProjectStatistics(projectID string) (*ProjectStatistics, error) {
	stats := &ProjectStatistics{}

	if err := s.db.Model(&Component{}).
		Where("project_id = ? AND is_active = ?", projectID, true).
		Count(&stats.ComponentCount).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&Documentation{}).
		Where("project_id = ?", projectID).
		Count(&stats.DocumentationCount).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&AgentRun{}).
		Where("project_id = ?", projectID).
		Count(&stats.TotalAgentRuns).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&AgentRun{}).
		Where("project_id = ? AND status = ?", projectID, "completed").
		Count(&stats.SuccessfulRuns).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&AgentRun{}).
		Where("project_id = ? AND status = ?", projectID, "failed").
		Count(&stats.FailedRuns).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// CreateJob persists a generation job row.
func (s *Store) CreateJob(job *Job) error {
	return s.db.Create(job).Error
}

func (s *Store) Job(id string) (*Job, error) {
	var job Job
	err := s.db.First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateJobStatus transitions a job and stamps lifecycle timestamps.
func (s *Store) UpdateJobStatus(jobID, status, errMsg string) error {
	updates := map[string]any{"status": status}
	now := time.Now().UTC()
	switch status {
	case JobStatusRunning:
		updates["started_at"] = now
	case JobStatusCompleted, JobStatusFailed:
		updates["completed_at"] = now
	}
	if errMsg != "" {
		updates["error_message"] = errMsg
	}
	return s.db.Model(&Job{}).Where("id = ?", jobID).Updates(updates).Error
}
