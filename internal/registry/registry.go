// Package registry tracks the tools exposed by the deck: their metadata,
// category grouping, external binary dependencies and last execution.
// Registration is explicit at startup; there is no global instance.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/dedsec-deck/deckd/internal/audit"
)

// Category groups related tools.
type Category string

// Tool categories.
const (
	CategoryWiFi      Category = "wifi"
	CategoryNetwork   Category = "network"
	CategoryBluetooth Category = "bluetooth"
	CategorySystem    Category = "system"
	CategoryRecon     Category = "recon"
)

// Registry errors.
var (
	// ErrToolExists is returned when registering a duplicate tool ID.
	ErrToolExists = errors.New("tool already registered")
	// ErrToolNotFound is returned for an unknown tool ID.
	ErrToolNotFound = errors.New("tool not registered")
	// ErrInvalidTool is returned for metadata missing required fields.
	ErrInvalidTool = errors.New("invalid tool metadata")
)

// Tool is the metadata of one registered tool.
type Tool struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Category    Category `json:"category" yaml:"category"`
	Description string   `json:"description" yaml:"description"`
	// Binaries are the external commands the tool depends on.
	Binaries     []string `json:"binaries,omitempty" yaml:"binaries,omitempty"`
	RequiresRoot bool     `json:"requires_root" yaml:"requires_root"`
}

// ExecutionRecord is the outcome of a tool's most recent run.
type ExecutionRecord struct {
	Status string    `json:"status" yaml:"status"`
	At     time.Time `json:"at" yaml:"at"`
}

// Registry is the tool catalog.
type Registry struct {
	audit  *audit.Logger
	logger *slog.Logger
	clock  func() time.Time
	// lookPath is swapped in tests.
	lookPath func(string) (string, error)

	mu       sync.Mutex
	tools    map[string]Tool
	disabled map[string]bool
	lastRun  map[string]ExecutionRecord
}

// New creates an empty registry.
func New(auditLogger *audit.Logger, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		audit:    auditLogger,
		logger:   logger,
		clock:    time.Now,
		lookPath: exec.LookPath,
		tools:    make(map[string]Tool),
		disabled: make(map[string]bool),
		lastRun:  make(map[string]ExecutionRecord),
	}
}

// Register adds a tool to the catalog.
func (r *Registry) Register(tool Tool) error {
	if tool.ID == "" || tool.Name == "" {
		return fmt.Errorf("%w: id and name are required", ErrInvalidTool)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.ID]; exists {
		return fmt.Errorf("%w: %s", ErrToolExists, tool.ID)
	}
	r.tools[tool.ID] = tool

	r.logger.Debug("tool registered", "tool", tool.ID, "category", tool.Category)
	r.audit.LogEvent(context.Background(), audit.EventTool, "registered", map[string]any{
		"tool":     tool.ID,
		"category": string(tool.Category),
	})
	return nil
}

// Get returns the tool with the given ID.
func (r *Registry) Get(id string) (Tool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tool, ok := r.tools[id]
	if !ok {
		return Tool{}, fmt.Errorf("%w: %s", ErrToolNotFound, id)
	}
	return tool, nil
}

// All returns every registered tool sorted by ID.
func (r *Registry) All() []Tool {
	r.mu.Lock()
	defer r.mu.Unlock()
	tools := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].ID < tools[j].ID })
	return tools
}

// ByCategory returns the tools in a category sorted by ID.
func (r *Registry) ByCategory(category Category) []Tool {
	var tools []Tool
	for _, tool := range r.All() {
		if tool.Category == category {
			tools = append(tools, tool)
		}
	}
	return tools
}

// Categories returns the categories that have at least one tool.
func (r *Registry) Categories() []Category {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[Category]bool)
	for _, tool := range r.tools {
		seen[tool.Category] = true
	}
	categories := make([]Category, 0, len(seen))
	for category := range seen {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	return categories
}

// Enabled reports whether the tool is enabled. Unknown tools are disabled.
func (r *Registry) Enabled(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[id]; !ok {
		return false
	}
	return !r.disabled[id]
}

// SetEnabled toggles a tool.
func (r *Registry) SetEnabled(id string, enabled bool) error {
	r.mu.Lock()
	if _, ok := r.tools[id]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrToolNotFound, id)
	}
	r.disabled[id] = !enabled
	r.mu.Unlock()

	r.audit.LogEvent(context.Background(), audit.EventTool, "toggled", map[string]any{
		"tool":    id,
		"enabled": enabled,
	})
	return nil
}

// MissingBinaries returns the tool's external dependencies that cannot be
// found on the current system.
func (r *Registry) MissingBinaries(id string) ([]string, error) {
	tool, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, binary := range tool.Binaries {
		if _, err := r.lookPath(binary); err != nil {
			missing = append(missing, binary)
		}
	}
	return missing, nil
}

// Available reports whether the tool is enabled and all its binaries are
// installed.
func (r *Registry) Available(id string) bool {
	if !r.Enabled(id) {
		return false
	}
	missing, err := r.MissingBinaries(id)
	return err == nil && len(missing) == 0
}

// RecordExecution stores the outcome of a tool run.
func (r *Registry) RecordExecution(id, status string) error {
	r.mu.Lock()
	if _, ok := r.tools[id]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrToolNotFound, id)
	}
	record := ExecutionRecord{Status: status, At: r.clock()}
	r.lastRun[id] = record
	r.mu.Unlock()

	r.audit.LogEvent(context.Background(), audit.EventTool, "executed", map[string]any{
		"tool":   id,
		"status": status,
	})
	return nil
}

// LastExecution returns the most recent run of the tool, if any.
func (r *Registry) LastExecution(id string) (ExecutionRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.lastRun[id]
	return record, ok
}

// DefaultTools returns the built-in catalog.
func DefaultTools() []Tool {
	return []Tool{
		{ID: "port_scan", Name: "Port Scanner", Category: CategoryRecon, Description: "TCP/UDP port scan of a target host or network", Binaries: []string{"nmap"}},
		{ID: "host_discovery", Name: "Host Discovery", Category: CategoryNetwork, Description: "Ping-scan the LAN for live hosts", Binaries: []string{"nmap", "ip"}},
		{ID: "arp_spoof", Name: "ARP Spoofer", Category: CategoryNetwork, Description: "ARP cache poisoning sessions", Binaries: []string{"arpspoof"}, RequiresRoot: true},
		{ID: "wifi_scan", Name: "WiFi Scanner", Category: CategoryWiFi, Description: "List visible wireless networks", Binaries: []string{"nmcli"}},
		{ID: "wifi_deauth", Name: "Deauth", Category: CategoryWiFi, Description: "Send deauthentication frames", Binaries: []string{"aireplay-ng", "airmon-ng"}, RequiresRoot: true},
		{ID: "bt_scan", Name: "Bluetooth Scanner", Category: CategoryBluetooth, Description: "Discover nearby Bluetooth devices", Binaries: []string{"bluetoothctl"}},
		{ID: "sys_power", Name: "Power Control", Category: CategorySystem, Description: "Shut down or reboot the deck", Binaries: []string{"shutdown", "reboot"}, RequiresRoot: true},
	}
}
