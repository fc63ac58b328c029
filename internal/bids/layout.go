package bids

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Kind distinguishes the two recognized layout variants.
type Kind string

const (
	// KindStandard is a raw BIDS dataset.
	KindStandard Kind = "standard"

	// KindDerivative is a dataset produced by a processing pipeline,
	// marked by provenance metadata in its descriptor or by living under
	// a derivatives/ subtree.
	KindDerivative Kind = "derivative"
)

const descriptorName = "dataset_description.json"

// Layout is a read-only index over one dataset's file tree. It is built
// once by Resolve and owned exclusively by the processing call that built
// it; workers never share layouts.
type Layout struct {
	// DatasetID is the opaque registry identifier, e.g. "ds000001".
	DatasetID string

	// Root is the absolute dataset root path.
	Root string

	// Kind reports whether the layout is standard or derivative.
	Kind Kind

	// Subjects holds the sorted bare subject labels (without "sub-").
	Subjects []string

	// Sessions maps subject label to its sorted session labels. Subjects
	// without session subdirectories are absent from the map (implicit
	// single session).
	Sessions map[string][]string

	// Tasks holds the sorted distinct task names found in filenames.
	Tasks []string

	// Runs holds the sorted distinct numeric run indices. Datasets
	// without run entities get the implicit single run [1].
	Runs []int

	// Files holds every regular file as a sorted slash-separated path
	// relative to Root. Hidden and annex bookkeeping directories are
	// excluded.
	Files []string

	// Descriptor is the decoded dataset_description.json.
	Descriptor map[string]any

	// Findings accumulates non-fatal observations made during
	// resolution, such as descriptor schema violations.
	Findings []Finding
}

// Resolve builds a Layout for datasetID under datadir.
//
// Detection rule: a dataset_description.json at the root marks a standard
// layout unless it carries a GeneratedBy or PipelineDescription provenance
// key (or declares DatasetType "derivative"), in which case the layout is
// derivative. When the root has no descriptor but a derivatives/ subtree
// does, the layout is derivative. With no descriptor anywhere, Resolve
// fails with *StructureError.
//
// Datasets with zero sessions or zero tasks resolve fine; both are common.
func Resolve(datadir, datasetID string) (*Layout, error) {
	root, err := filepath.Abs(filepath.Join(datadir, datasetID))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", datasetID, err)
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, &StructureError{Dataset: datasetID, Root: root}
	}

	files, err := indexFiles(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", datasetID, err)
	}

	layout := &Layout{
		DatasetID: datasetID,
		Root:      root,
		Files:     files,
		Sessions:  map[string][]string{},
	}

	descriptorPath, kind, found := locateDescriptor(files)
	if !found {
		return nil, &StructureError{Dataset: datasetID, Root: root}
	}
	layout.Kind = kind

	// A descriptor that exists but does not parse is malformed required
	// JSON: fatal for this dataset.
	desc, err := readDescriptor(filepath.Join(root, filepath.FromSlash(descriptorPath)))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", datasetID, err)
	}
	layout.Descriptor = desc

	if isDerivativeDescriptor(desc) {
		layout.Kind = KindDerivative
	}
	layout.Findings = append(layout.Findings, ValidateDescriptor(desc)...)

	indexEntities(layout)
	return layout, nil
}

// HasFile reports whether the exact relative path exists in the index.
func (l *Layout) HasFile(rel string) bool {
	i := sort.SearchStrings(l.Files, rel)
	return i < len(l.Files) && l.Files[i] == rel
}

// NonRestTasks returns the tasks not classified as resting-state.
func (l *Layout) NonRestTasks(restPrefixes []string) []string {
	return NonRest(l.Tasks, restPrefixes)
}

// indexFiles walks the dataset tree collecting relative file paths.
// Hidden directories (.git, .datalad, ...) are skipped: annex bookkeeping
// is not dataset content.
func indexFiles(root string) ([]string, error) {
	var files []string
	err := fs.WalkDir(os.DirFS(root), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk dataset tree: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// locateDescriptor finds the governing dataset_description.json: the root
// first, then the first derivatives/<pipeline>/ subtree.
func locateDescriptor(files []string) (rel string, kind Kind, found bool) {
	for _, f := range files {
		if f == descriptorName {
			return f, KindStandard, true
		}
	}
	for _, f := range files {
		parts := strings.Split(f, "/")
		if len(parts) == 3 && parts[0] == "derivatives" && parts[2] == descriptorName {
			return f, KindDerivative, true
		}
	}
	return "", "", false
}

func isDerivativeDescriptor(desc map[string]any) bool {
	if _, ok := desc["GeneratedBy"]; ok {
		return true
	}
	if _, ok := desc["PipelineDescription"]; ok {
		return true
	}
	if t, ok := desc["DatasetType"].(string); ok && t == "derivative" {
		return true
	}
	return false
}

// indexEntities extracts subjects, sessions, tasks, and runs from the file
// index. Subject and session come from directory segments, task and run
// from filename entities.
func indexEntities(l *Layout) {
	subjects := map[string]bool{}
	sessions := map[string]map[string]bool{}
	tasks := map[string]bool{}
	runs := map[int]bool{}

	for _, f := range l.Files {
		segs := strings.Split(f, "/")
		for i := 0; i < len(segs)-1; i++ {
			sub, ok := strings.CutPrefix(segs[i], "sub-")
			if !ok || sub == "" {
				continue
			}
			subjects[sub] = true
			if i+1 < len(segs)-1 {
				if ses, ok := strings.CutPrefix(segs[i+1], "ses-"); ok && ses != "" {
					if sessions[sub] == nil {
						sessions[sub] = map[string]bool{}
					}
					sessions[sub][ses] = true
				}
			}
		}

		ent := ParseEntities(segs[len(segs)-1])
		if t := ent.Task(); t != "" {
			tasks[t] = true
		}
		if r := ent.Run(); r != "" {
			if n, err := strconv.Atoi(r); err == nil {
				runs[n] = true
			}
		}
	}

	l.Subjects = sortedKeys(subjects)
	for sub, set := range sessions {
		l.Sessions[sub] = sortedKeys(set)
	}
	l.Tasks = sortedKeys(tasks)

	for r := range runs {
		l.Runs = append(l.Runs, r)
	}
	if len(l.Runs) == 0 {
		l.Runs = []int{1}
	}
	sort.Ints(l.Runs)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
