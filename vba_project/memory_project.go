package vba_project

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/officeforge/vbasync/vba_project/contracts"
	"github.com/officeforge/vbasync/vba_project/models"
)

// MemoryProject is an in-memory implementation of contracts.HostProject. It
// backs the sync engine tests and serves as the reference behaviour for
// platform bindings: Save bumps the last-saved time, document modules cannot
// be removed, and reachability can be toggled to simulate connection loss.
type MemoryProject struct {
	mu         sync.Mutex
	name       string
	components map[string]*memoryComponent
	lastSaved  time.Time
	saveCount  int
	downErr    error
}

type memoryComponent struct {
	kind models.ComponentKind
	text string
}

// NewMemoryProject creates an empty in-memory project for the given document
// name.
func NewMemoryProject(name string) *MemoryProject {
	return &MemoryProject{
		name:       name,
		components: make(map[string]*memoryComponent),
	}
}

func (p *MemoryProject) Name() string { return p.name }

func (p *MemoryProject) Components() ([]models.ComponentInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.downErr != nil {
		return nil, p.downErr
	}

	infos := make([]models.ComponentInfo, 0, len(p.components))
	for name, c := range p.components {
		infos = append(infos, models.ComponentInfo{
			Name:      name,
			Kind:      c.kind,
			CodeLines: strings.Count(c.text, "\n") + 1,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (p *MemoryProject) TextOf(name string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.downErr != nil {
		return "", p.downErr
	}
	c, ok := p.components[name]
	if !ok {
		return "", contracts.ErrComponentNotFound
	}
	return c.text, nil
}

func (p *MemoryProject) SetText(name string, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.downErr != nil {
		return p.downErr
	}
	c, ok := p.components[name]
	if !ok {
		return contracts.ErrComponentNotFound
	}
	c.text = text
	return nil
}

func (p *MemoryProject) Add(name string, kind models.ComponentKind, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.downErr != nil {
		return p.downErr
	}
	p.components[name] = &memoryComponent{kind: kind, text: text}
	return nil
}

func (p *MemoryProject) Remove(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.downErr != nil {
		return p.downErr
	}
	c, ok := p.components[name]
	if !ok {
		return contracts.ErrComponentNotFound
	}
	// Document modules are owned by the document itself. The real object
	// model rejects removal; mirror that here so tests catch misuse.
	if c.kind == models.KindDocument {
		return contracts.ErrComponentNotFound
	}
	delete(p.components, name)
	return nil
}

func (p *MemoryProject) Save() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.downErr != nil {
		return p.downErr
	}
	p.lastSaved = time.Now()
	p.saveCount++
	return nil
}

func (p *MemoryProject) LastSaved() (time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.downErr != nil {
		return time.Time{}, p.downErr
	}
	return p.lastSaved, nil
}

func (p *MemoryProject) Reachable() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.downErr
}

// SetUnreachable makes every subsequent operation fail with err until
// SetUnreachable(nil) restores the connection. Used to simulate the host
// application going away mid-session.
func (p *MemoryProject) SetUnreachable(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.downErr = err
}

// MarkSaved bumps the last-saved time without going through Save, simulating
// a save performed by the user inside the host editor.
func (p *MemoryProject) MarkSaved() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastSaved = time.Now()
}

// SaveCount reports how many times Save has been called. Test helper.
func (p *MemoryProject) SaveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saveCount
}
