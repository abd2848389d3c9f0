package generator

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/OneOfOne/xxhash"
	"github.com/docsmith/docgen/src/confluence"
	"github.com/docsmith/docgen/src/data"
	"github.com/docsmith/docgen/src/export"
	"github.com/docsmith/docgen/src/sdk"
	"github.com/docsmith/docgen/src/sdk/core"
	"github.com/redis/go-redis/v9"
)

// Export formats accepted on a generation request.
const (
	FormatConfluence = "confluence"
	FormatMarkdown   = "markdown"
	FormatBoth       = "both"
)

// Service runs the documentation pipeline: fan a repository out to the
// documentation agents, persist what they produce, then publish to
// Confluence, the local export tree, or both.
type Service struct {
	store      *data.Store
	rdb        *redis.Client
	runtime    *sdk.Runtime
	confluence *confluence.Client
	exporter   *export.Exporter
	space      string
	logger     *log.Logger
}

func NewService(store *data.Store, rdb *redis.Client, runtime *sdk.Runtime, cf *confluence.Client, exporter *export.Exporter, space string, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		store:      store,
		rdb:        rdb,
		runtime:    runtime,
		confluence: cf,
		exporter:   exporter,
		space:      space,
		logger:     logger,
	}
}

// Submit validates the request, records a job row, and enqueues it for the
// worker.
func (s *Service) Submit(ctx context.Context, repoURL, space, format string) (*data.Job, error) {
	if strings.TrimSpace(repoURL) == "" {
		return nil, fmt.Errorf("generator: repo_url is required")
	}
	switch format {
	case "":
		format = FormatConfluence
	case FormatConfluence, FormatMarkdown, FormatBoth:
	default:
		return nil, fmt.Errorf("generator: unsupported export format %q", format)
	}
	if space == "" {
		space = s.space
	}

	job := &data.Job{
		RepoURL:      repoURL,
		Space:        space,
		ExportFormat: format,
		Status:       data.JobStatusQueued,
	}
	if err := s.store.CreateJob(job); err != nil {
		return nil, fmt.Errorf("generator: create job: %w", err)
	}

	err := data.EnqueueJob(ctx, s.rdb, data.QueuedJob{
		ID:           job.ID,
		RepoURL:      repoURL,
		Space:        space,
		ExportFormat: format,
	})
	if err != nil {
		_ = s.store.UpdateJobStatus(job.ID, data.JobStatusFailed, err.Error())
		return nil, fmt.Errorf("generator: enqueue job: %w", err)
	}

	s.logger.Printf("queued job %s for %s (%s)", job.ID, repoURL, format)
	return job, nil
}

// Process runs one queued job end to end.
func (s *Service) Process(ctx context.Context, job data.QueuedJob) error {
	s.setStatus(ctx, job.ID, data.JobStatusRunning, "")

	project, err := s.store.EnsureProject(projectName(job.RepoURL), job.RepoURL, job.Space, "")
	if err != nil {
		s.setStatus(ctx, job.ID, data.JobStatusFailed, err.Error())
		return err
	}

	results := s.runtime.SDK.ExecuteWorkflow(ctx, buildWorkflow(job))

	arch, archErr := s.storeArchitecture(project.ID, job.ID, results["architecture_analyzer"])
	components := s.storeComponents(project.ID, job.ID, results["component_documenter"])
	usageGuide := s.storeUsage(project.ID, job.ID, results["usage_guide_generator"])

	if archErr != nil && len(components) == 0 && usageGuide == "" {
		msg := fmt.Sprintf("all agents failed: %v", archErr)
		s.setStatus(ctx, job.ID, data.JobStatusFailed, msg)
		return fmt.Errorf("generator: %s", msg)
	}

	if job.ExportFormat == FormatConfluence || job.ExportFormat == FormatBoth {
		if err := s.publish(ctx, project, arch, components, usageGuide); err != nil {
			s.logger.Printf("job %s: confluence publish: %v", job.ID, err)
		}
	}
	if job.ExportFormat == FormatMarkdown || job.ExportFormat == FormatBoth {
		if err := s.exportMarkdown(project, arch, components, usageGuide); err != nil {
			s.logger.Printf("job %s: markdown export: %v", job.ID, err)
		}
	}

	s.setStatus(ctx, job.ID, data.JobStatusCompleted, "")
	s.logger.Printf("job %s completed for %s", job.ID, job.RepoURL)
	return nil
}

// buildWorkflow fans the repository out to the three documentation agents.
func buildWorkflow(job data.QueuedJob) core.Workflow {
	name := projectName(job.RepoURL)
	return core.Workflow{
		"architecture_analyzer": {
			{InputData: map[string]any{"repository_url": job.RepoURL}},
		},
		"component_documenter": {
			{InputData: map[string]any{"component_name": name, "repository_url": job.RepoURL}},
		},
		"usage_guide_generator": {
			{InputData: map[string]any{"project_name": name, "repository_url": job.RepoURL}},
		},
	}
}

func (s *Service) storeArchitecture(projectID, jobID string, results []*core.Result) (*data.Architecture, error) {
	result := firstResult(results)
	s.trackRun(projectID, jobID, "architecture_analyzer", result)
	if result == nil || !result.Success {
		return nil, resultError("architecture_analyzer", result)
	}

	arch := &data.Architecture{
		ProjectStructure:     toJSONMap(result.Data["project_structure"]),
		KeyComponents:        toJSONList(result.Data["key_components"]),
		ArchitecturePatterns: toJSONList(result.Data["architecture_patterns"]),
		Dependencies:         toJSONMap(result.Data["dependencies"]),
		MermaidDiagrams:      toJSONList(result.Data["mermaid_diagrams"]),
		ConfluenceContent:    stringValue(result.Data["confluence_content"]),
	}
	if tf, ok := arch.ProjectStructure["total_files"].(float64); ok {
		arch.TotalFiles = int(tf)
	}
	if err := s.store.StoreArchitecture(projectID, arch); err != nil {
		s.logger.Printf("store architecture: %v", err)
		return arch, nil
	}

	for i, code := range arch.MermaidDiagrams {
		diagram := &data.MermaidDiagram{
			ProjectID:   projectID,
			Name:        fmt.Sprintf("architecture-%d", i+1),
			DiagramType: "flowchart",
			MermaidCode: code,
		}
		if err := s.store.StoreDiagram(diagram); err != nil {
			s.logger.Printf("store diagram: %v", err)
		}
	}
	return arch, nil
}

func (s *Service) storeComponents(projectID, jobID string, results []*core.Result) []data.Component {
	var stored []data.Component
	for _, result := range results {
		s.trackRun(projectID, jobID, "component_documenter", result)
		if result == nil || !result.Success {
			continue
		}
		comp := data.Component{
			Name:              stringValue(result.Data["component_name"]),
			Type:              stringValue(result.Data["type"]),
			Description:       stringValue(result.Data["description"]),
			Interfaces:        toJSONList(result.Data["interfaces"]),
			Dependencies:      toJSONList(result.Data["dependencies"]),
			UsageExamples:     toJSONList(result.Data["usage_examples"]),
			ConfluenceContent: stringValue(result.Data["confluence_content"]),
		}
		if err := s.store.StoreComponent(projectID, &comp); err != nil {
			s.logger.Printf("store component %s: %v", comp.Name, err)
			continue
		}
		stored = append(stored, comp)
	}
	return stored
}

func (s *Service) storeUsage(projectID, jobID string, results []*core.Result) string {
	result := firstResult(results)
	s.trackRun(projectID, jobID, "usage_guide_generator", result)
	if result == nil || !result.Success {
		return ""
	}
	return stringValue(result.Data["confluence_content"])
}

// publish pushes documents to Confluence, skipping pages whose content hash
// has not changed since the last publish.
func (s *Service) publish(ctx context.Context, project *data.Project, arch *data.Architecture, components []data.Component, usageGuide string) error {
	if s.confluence == nil {
		return fmt.Errorf("confluence client not configured")
	}
	space := project.ConfluenceSpace
	if space == "" {
		space = s.space
	}

	if arch != nil && arch.ConfluenceContent != "" {
		title := project.Name + " - Architecture"
		if err := s.publishDoc(ctx, project.ID, space, "architecture", title, arch.ConfluenceContent); err != nil {
			return err
		}
	}
	for i := range components {
		comp := &components[i]
		if comp.ConfluenceContent == "" {
			continue
		}
		title := project.Name + " - " + comp.Name
		if err := s.publishDoc(ctx, project.ID, space, "component", title, comp.ConfluenceContent); err != nil {
			return err
		}
	}
	if usageGuide != "" {
		title := project.Name + " - Usage Guide"
		if err := s.publishDoc(ctx, project.ID, space, "usage", title, usageGuide); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) publishDoc(ctx context.Context, projectID, space, docType, title, markdown string) error {
	hash := contentHash(markdown)

	prior, err := s.store.DocumentationByTypeAndTitle(projectID, docType, title)
	if err != nil {
		s.logger.Printf("lookup %s doc: %v", docType, err)
	}
	if prior != nil && prior.ContentHash == hash && prior.ConfluencePageID != "" {
		s.logger.Printf("skipping unchanged page: %s", title)
		return nil
	}

	page, err := s.confluence.CreateOrUpdatePage(ctx, space, title, confluence.FormatStorage(markdown), "")
	if err != nil {
		return err
	}

	doc := &data.Documentation{
		ProjectID:        projectID,
		DocType:          docType,
		Title:            title,
		MarkdownContent:  markdown,
		ContentHash:      hash,
		ConfluencePageID: page.ID,
		ConfluenceSpace:  space,
	}
	if err := s.store.StoreDocumentation(doc); err != nil {
		s.logger.Printf("store %s doc: %v", docType, err)
		return nil
	}
	return s.store.MarkPublished(doc.ID, page.ID, page.URL)
}

func (s *Service) exportMarkdown(project *data.Project, arch *data.Architecture, components []data.Component, usageGuide string) error {
	if s.exporter == nil {
		return fmt.Errorf("exporter not configured")
	}

	var archDoc *export.ArchitectureDoc
	if arch != nil {
		archDoc = &export.ArchitectureDoc{
			ProjectStructure: arch.ProjectStructure,
			KeyComponents:    arch.KeyComponents,
			Patterns:         arch.ArchitecturePatterns,
			Dependencies:     splitDeps(arch.Dependencies),
			MermaidDiagrams:  arch.MermaidDiagrams,
		}
	}

	docs := make([]export.ComponentDoc, 0, len(components))
	for _, comp := range components {
		docs = append(docs, export.ComponentDoc{
			Name:        comp.Name,
			Type:        comp.Type,
			Description: comp.Description,
			Content:     comp.ConfluenceContent,
		})
	}

	_, err := s.exporter.ExportProject(project.Name, archDoc, docs, usageGuide)
	return err
}

func (s *Service) trackRun(projectID, jobID, agentType string, result *core.Result) {
	run := &data.AgentRun{
		ProjectID: projectID,
		AgentType: agentType,
		JobID:     jobID,
		Status:    "failed",
	}
	if result != nil {
		run.ExecutionTimeSeconds = int(result.ExecutionTime)
		run.ErrorMessage = result.Error
		if result.Success {
			run.Status = "completed"
		}
	} else {
		run.ErrorMessage = "no result produced"
	}
	if err := s.store.TrackAgentRun(run); err != nil {
		s.logger.Printf("track agent run: %v", err)
	}
}

func (s *Service) setStatus(ctx context.Context, jobID, status, errMsg string) {
	if err := s.store.UpdateJobStatus(jobID, status, errMsg); err != nil {
		s.logger.Printf("job %s: update status: %v", jobID, err)
	}
	if err := data.SetJobStatus(ctx, s.rdb, jobID, status, errMsg); err != nil {
		s.logger.Printf("job %s: mirror status: %v", jobID, err)
	}
}

func contentHash(content string) string {
	return fmt.Sprintf("%016x", xxhash.ChecksumString64(content))
}

func projectName(repoURL string) string {
	name := path.Base(strings.TrimSuffix(strings.TrimRight(repoURL, "/"), ".git"))
	if name == "" || name == "." || name == "/" {
		return "project"
	}
	return name
}

func firstResult(results []*core.Result) *core.Result {
	if len(results) == 0 {
		return nil
	}
	return results[0]
}

func resultError(agent string, result *core.Result) error {
	if result == nil {
		return fmt.Errorf("%s produced no result", agent)
	}
	return fmt.Errorf("%s: %s", agent, result.Error)
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func toJSONMap(v any) data.JSONMap {
	if m, ok := v.(map[string]any); ok {
		return data.JSONMap(m)
	}
	return data.JSONMap{}
}

func toJSONList(v any) data.JSONList {
	switch vv := v.(type) {
	case []string:
		return data.JSONList(vv)
	case []any:
		out := make(data.JSONList, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return data.JSONList{}
}

func splitDeps(deps data.JSONMap) map[string][]string {
	out := make(map[string][]string, len(deps))
	for key, v := range deps {
		out[key] = toJSONList(v)
	}
	return out
}
