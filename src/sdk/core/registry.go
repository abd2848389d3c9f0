package core

import (
	"fmt"
	"log"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"
)

// Entry is a denormalized snapshot of one agent's capabilities plus the
// identity of its concrete implementation. Entries are serializable; the
// registry never holds live instances.
type Entry struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Capabilities Capabilities   `json:"capabilities"`
	ClassName    string         `json:"class_name"`
	ModulePath   string         `json:"module_path"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	RegisteredAt time.Time      `json:"registered_at"`
	Version      string         `json:"version"`
}

// Requirements filter entries in CompatibleAgents. Within a category any
// overlap qualifies; categories combine with AND.
type Requirements struct {
	InputTypes        []string `json:"input_types,omitempty"`
	OutputTypes       []string `json:"output_types,omitempty"`
	Languages         []string `json:"languages,omitempty"`
	MaxTimeoutSeconds int      `json:"max_timeout_seconds,omitempty"`
	MinParallelTasks  int      `json:"min_parallel_tasks,omitempty"`
}

// Registry catalogs agent capabilities for discovery and workflow
// recommendation, separate from live instances. Mutations take the write
// lock and persist the whole snapshot synchronously; lookups are pure reads
// under the read lock.
type Registry struct {
	store  RegistryStore
	logger *log.Logger

	mu        sync.RWMutex
	agents    map[string]Entry
	capIndex  map[string]map[string]struct{} // input type -> agent names
	langIndex map[string]map[string]struct{} // language -> agent names
}

// NewRegistry loads any persisted snapshot from the store. A missing or
// unreadable snapshot yields an empty registry rather than an error.
func NewRegistry(store RegistryStore, logger *log.Logger) *Registry {
	r := &Registry{
		store:     store,
		logger:    logger,
		agents:    make(map[string]Entry),
		capIndex:  make(map[string]map[string]struct{}),
		langIndex: make(map[string]map[string]struct{}),
	}
	r.load()
	return r
}

// Register snapshots an agent's capabilities into the entry map, overwriting
// any prior entry of the same name, rebuilds both indexes for that name, and
// persists the registry.
func (r *Registry) Register(agent Agent, metadata map[string]any) error {
	caps := agent.Capabilities().WithDefaults()
	if caps.Name == "" {
		return fmt.Errorf("registry: agent missing capability name")
	}

	version := "1.0.0"
	if metadata != nil {
		if v, ok := metadata["version"].(string); ok && v != "" {
			version = v
		}
	}

	implType := reflect.TypeOf(agent)
	for implType.Kind() == reflect.Pointer {
		implType = implType.Elem()
	}

	entry := Entry{
		Name:         caps.Name,
		Description:  caps.Description,
		Capabilities: caps,
		ClassName:    implType.Name(),
		ModulePath:   implType.PkgPath(),
		Metadata:     metadata,
		RegisteredAt: time.Now().UTC(),
		Version:      version,
	}

	r.mu.Lock()
	if prior, ok := r.agents[caps.Name]; ok {
		r.dropFromIndexes(prior)
	}
	r.agents[caps.Name] = entry
	r.addToIndexes(entry)
	r.mu.Unlock()

	r.logf("registered agent: %s", caps.Name)
	return r.persist()
}

// Unregister removes the entry and prunes the name from every index bucket,
// deleting now-empty buckets, then persists.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	entry, ok := r.agents[name]
	if ok {
		r.dropFromIndexes(entry)
		delete(r.agents, name)
	}
	r.mu.Unlock()

	if !ok {
		return nil
	}
	r.logf("unregistered agent: %s", name)
	return r.persist()
}

func (r *Registry) addToIndexes(entry Entry) {
	for _, inputType := range entry.Capabilities.InputTypes {
		bucket := r.capIndex[inputType]
		if bucket == nil {
			bucket = make(map[string]struct{})
			r.capIndex[inputType] = bucket
		}
		bucket[entry.Name] = struct{}{}
	}
	for _, lang := range entry.Capabilities.SupportedLanguages {
		bucket := r.langIndex[lang]
		if bucket == nil {
			bucket = make(map[string]struct{})
			r.langIndex[lang] = bucket
		}
		bucket[entry.Name] = struct{}{}
	}
}

func (r *Registry) dropFromIndexes(entry Entry) {
	for _, inputType := range entry.Capabilities.InputTypes {
		if bucket, ok := r.capIndex[inputType]; ok {
			delete(bucket, entry.Name)
			if len(bucket) == 0 {
				delete(r.capIndex, inputType)
			}
		}
	}
	for _, lang := range entry.Capabilities.SupportedLanguages {
		if bucket, ok := r.langIndex[lang]; ok {
			delete(bucket, entry.Name)
			if len(bucket) == 0 {
				delete(r.langIndex, lang)
			}
		}
	}
}

// Get returns the entry registered under name.
func (r *Registry) Get(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.agents[name]
	return entry, ok
}

// List returns all entries sorted by name.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedEntriesLocked()
}

func (r *Registry) sortedEntriesLocked() []Entry {
	out := make([]Entry, 0, len(r.agents))
	for _, entry := range r.agents {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FindByInputType returns entries whose agents accept the input type.
func (r *Registry) FindByInputType(inputType string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entriesForBucketLocked(r.capIndex[inputType])
}

// FindByLanguage returns entries whose agents support the language.
func (r *Registry) FindByLanguage(language string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entriesForBucketLocked(r.langIndex[language])
}

func (r *Registry) entriesForBucketLocked(bucket map[string]struct{}) []Entry {
	out := make([]Entry, 0, len(bucket))
	for name := range bucket {
		if entry, ok := r.agents[name]; ok {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FindByOutputType scans entries for a declared output type; output types are
// not indexed.
func (r *Registry) FindByOutputType(outputType string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Entry
	for _, entry := range r.sortedEntriesLocked() {
		if containsString(entry.Capabilities.OutputTypes, outputType) {
			out = append(out, entry)
		}
	}
	return out
}

// Search matches query as a case-insensitive substring of name or
// description.
func (r *Registry) Search(query string) []Entry {
	needle := strings.ToLower(query)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Entry
	for _, entry := range r.sortedEntriesLocked() {
		if strings.Contains(strings.ToLower(entry.Name), needle) ||
			strings.Contains(strings.ToLower(entry.Description), needle) {
			out = append(out, entry)
		}
	}
	return out
}

// CompatibleAgents filters entries against the requirements: non-empty
// overlap per requested category, declared timeout within any ceiling, and
// declared parallelism above any floor. Empty requirements match everything.
func (r *Registry) CompatibleAgents(req Requirements) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Entry
	for _, entry := range r.sortedEntriesLocked() {
		caps := entry.Capabilities
		if len(req.InputTypes) > 0 && !anyOverlap(req.InputTypes, caps.InputTypes) {
			continue
		}
		if len(req.OutputTypes) > 0 && !anyOverlap(req.OutputTypes, caps.OutputTypes) {
			continue
		}
		if len(req.Languages) > 0 && !anyOverlap(req.Languages, caps.SupportedLanguages) {
			continue
		}
		if req.MaxTimeoutSeconds > 0 && caps.TimeoutSeconds > req.MaxTimeoutSeconds {
			continue
		}
		if req.MinParallelTasks > 0 && caps.MaxParallelTasks < req.MinParallelTasks {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// CompatibilityScore is the weighted match between an entry and a
// requirements set: input/output overlap fractions at 30 each, language
// overlap at 20, a concurrency bonus, and a timeout adjustment.
func CompatibilityScore(entry Entry, req Requirements) float64 {
	caps := entry.Capabilities
	score := 0.0

	if n := len(req.InputTypes); n > 0 {
		score += overlapCount(req.InputTypes, caps.InputTypes) / float64(n) * 30
	}
	if n := len(req.OutputTypes); n > 0 {
		score += overlapCount(req.OutputTypes, caps.OutputTypes) / float64(n) * 30
	}
	if n := len(req.Languages); n > 0 {
		score += overlapCount(req.Languages, caps.SupportedLanguages) / float64(n) * 20
	}

	switch {
	case caps.MaxParallelTasks >= 5:
		score += 10
	case caps.MaxParallelTasks >= 3:
		score += 5
	}

	switch {
	case caps.TimeoutSeconds <= 60:
		score += 5
	case caps.TimeoutSeconds <= 300:
		score += 2
	case caps.TimeoutSeconds > 600:
		score -= 5
	}

	return score
}

// RecommendWorkflow returns, per step, the names of up to three compatible
// agents ranked by descending compatibility score. Equal scores keep the
// stable entry order.
func (r *Registry) RecommendWorkflow(steps map[string]Requirements) map[string][]string {
	recommendations := make(map[string][]string, len(steps))

	for stepName, req := range steps {
		candidates := r.CompatibleAgents(req)
		sort.SliceStable(candidates, func(i, j int) bool {
			return CompatibilityScore(candidates[i], req) > CompatibilityScore(candidates[j], req)
		})

		top := make([]string, 0, 3)
		for _, entry := range candidates {
			top = append(top, entry.Name)
			if len(top) == 3 {
				break
			}
		}
		recommendations[stepName] = top
	}
	return recommendations
}

// Validate checks entry field shapes and index consistency, returning every
// violation found.
func (r *Registry) Validate() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var issues []string
	for _, entry := range r.sortedEntriesLocked() {
		if entry.Name == "" {
			issues = append(issues, "entry with empty name")
		}
		if entry.ClassName == "" {
			issues = append(issues, fmt.Sprintf("agent %q: missing class_name", entry.Name))
		}
		if entry.ModulePath == "" {
			issues = append(issues, fmt.Sprintf("agent %q: missing module_path", entry.Name))
		}
		caps := entry.Capabilities
		if caps.Name != entry.Name {
			issues = append(issues, fmt.Sprintf("agent %q: capability name %q does not match entry key", entry.Name, caps.Name))
		}
		if len(caps.InputTypes) == 0 {
			issues = append(issues, fmt.Sprintf("agent %q: empty input_types", entry.Name))
		}
		if len(caps.OutputTypes) == 0 {
			issues = append(issues, fmt.Sprintf("agent %q: empty output_types", entry.Name))
		}
		if caps.MaxParallelTasks <= 0 {
			issues = append(issues, fmt.Sprintf("agent %q: non-positive max_parallel_tasks", entry.Name))
		}
		if caps.TimeoutSeconds <= 0 {
			issues = append(issues, fmt.Sprintf("agent %q: non-positive timeout_seconds", entry.Name))
		}
	}

	for inputType, bucket := range r.capIndex {
		for name := range bucket {
			if _, ok := r.agents[name]; !ok {
				issues = append(issues, fmt.Sprintf("capabilities index references missing agent %q for input type %q", name, inputType))
			}
		}
	}
	for lang, bucket := range r.langIndex {
		for name := range bucket {
			if _, ok := r.agents[name]; !ok {
				issues = append(issues, fmt.Sprintf("language index references missing agent %q for language %q", name, lang))
			}
		}
	}

	sort.Strings(issues)
	return issues
}

// Statistics summarizes registry contents for reporting surfaces.
type Statistics struct {
	TotalAgents        int            `json:"total_agents"`
	InputTypes         map[string]int `json:"input_types"`
	SupportedLanguages map[string]int `json:"supported_languages"`
	OutputTypes        []string       `json:"output_types"`
	LastUpdated        time.Time      `json:"last_updated"`
}

// Stats computes registry statistics.
func (r *Registry) Stats() Statistics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Statistics{
		TotalAgents:        len(r.agents),
		InputTypes:         make(map[string]int, len(r.capIndex)),
		SupportedLanguages: make(map[string]int, len(r.langIndex)),
		LastUpdated:        time.Now().UTC(),
	}
	for inputType, bucket := range r.capIndex {
		stats.InputTypes[inputType] = len(bucket)
	}
	for lang, bucket := range r.langIndex {
		stats.SupportedLanguages[lang] = len(bucket)
	}

	outputs := make(map[string]struct{})
	for _, entry := range r.agents {
		for _, outputType := range entry.Capabilities.OutputTypes {
			outputs[outputType] = struct{}{}
		}
	}
	for outputType := range outputs {
		stats.OutputTypes = append(stats.OutputTypes, outputType)
	}
	sort.Strings(stats.OutputTypes)
	return stats
}

func (r *Registry) snapshot() *RegistrySnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := &RegistrySnapshot{
		Agents:            make(map[string]Entry, len(r.agents)),
		CapabilitiesIndex: make(map[string][]string, len(r.capIndex)),
		LanguageIndex:     make(map[string][]string, len(r.langIndex)),
		LastSaved:         time.Now().UTC(),
	}
	for name, entry := range r.agents {
		snap.Agents[name] = entry
	}
	for inputType, bucket := range r.capIndex {
		snap.CapabilitiesIndex[inputType] = sortedNames(bucket)
	}
	for lang, bucket := range r.langIndex {
		snap.LanguageIndex[lang] = sortedNames(bucket)
	}
	return snap
}

func (r *Registry) persist() error {
	if r.store == nil {
		return nil
	}
	if err := r.store.Save(r.snapshot()); err != nil {
		return fmt.Errorf("registry: persist: %w", err)
	}
	return nil
}

func (r *Registry) load() {
	if r.store == nil {
		return
	}
	snap, err := r.store.Load()
	if err != nil {
		r.logf("load registry snapshot: %v; starting empty", err)
		return
	}
	if snap == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for name, entry := range snap.Agents {
		r.agents[name] = entry
	}
	for inputType, names := range snap.CapabilitiesIndex {
		bucket := make(map[string]struct{}, len(names))
		for _, name := range names {
			bucket[name] = struct{}{}
		}
		r.capIndex[inputType] = bucket
	}
	for lang, names := range snap.LanguageIndex {
		bucket := make(map[string]struct{}, len(names))
		for _, name := range names {
			bucket[name] = struct{}{}
		}
		r.langIndex[lang] = bucket
	}
	r.logf("loaded registry snapshot (%d agents)", len(r.agents))
}

func (r *Registry) logf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}

func sortedNames(bucket map[string]struct{}) []string {
	out := make([]string, 0, len(bucket))
	for name := range bucket {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func anyOverlap(required, supported []string) bool {
	for _, want := range required {
		if containsString(supported, want) {
			return true
		}
	}
	return false
}

func overlapCount(required, supported []string) float64 {
	count := 0
	for _, want := range required {
		if containsString(supported, want) {
			count++
		}
	}
	return float64(count)
}
