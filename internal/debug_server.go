package internal

import (
	"chat-hub/infrastructure/storage"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/process"
)

//go:embed inspect.html
var templatesFS embed.FS

const defaultInspectLimit = 200

type InspectRow struct {
	Key       string
	Family    string
	Timestamp string
	EntityID  string
	Scope     string
	Detail    string
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() map[string]any

type PageData struct {
	Prefix   string
	Prefixes []string
	Items    []InspectRow
	Stats    map[string]any
	Error    string
}

// StartDebugServer serves a read-only HTML view of the store prefixes with
// process and runtime stats. Only meant to run at debug log level.
func StartDebugServer(ctx context.Context, log *slog.Logger, store *storage.Store, port int, statsProvider StatsProvider) *http.Server {
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))
	mux := http.NewServeMux()
	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = storage.PrefixConversation
		}
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit <= 0 {
			limit = defaultInspectLimit
		}

		data := PageData{
			Prefix:   prefix,
			Prefixes: storage.Prefixes,
			Stats:    processStats(),
		}
		if statsProvider != nil {
			for k, v := range statsProvider() {
				data.Stats[k] = v
			}
		}

		entries, err := store.Dump(r.Context(), prefix, limit)
		if err != nil {
			data.Error = err.Error()
		}
		for _, e := range entries {
			data.Items = append(data.Items, DefaultMapper(e.Key, e.Value))
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			log.Debug("Inspect page rendering failed", "error", err)
		}
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Debug inspector listening", "url", fmt.Sprintf("http://%s/inspect", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("Debug inspector stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()
	return server
}

// DefaultMapper splits a key along the layout documented in the storage
// package: family, scope (conversation or user), then optional timestamp
// and entity id.
func DefaultMapper(key string, val []byte) InspectRow {
	parts := strings.Split(key, ":")
	row := InspectRow{
		Key:       key,
		Family:    parts[0],
		Timestamp: "--:--:--",
		EntityID:  "--------",
		Scope:     "-",
		Detail:    "Size: " + strconv.Itoa(len(val)) + " bytes",
	}
	if len(parts) >= 2 {
		row.Scope = shortID(parts[1])
	}
	switch {
	case len(parts) >= 4 && parts[0]+":" == storage.PrefixMessage:
		if tsNano, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
			row.Timestamp = time.Unix(0, tsNano).UTC().Format("15:04:05")
		}
		row.EntityID = shortID(parts[3])
	case len(parts) >= 3:
		row.EntityID = shortID(parts[len(parts)-1])
	}
	return row
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func processStats() map[string]any {
	stats := map[string]any{"pid": os.Getpid()}
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return stats
	}
	if mem, err := p.MemoryInfo(); err == nil {
		stats["rss_bytes"] = mem.RSS
	}
	if cpu, err := p.CPUPercent(); err == nil {
		stats["cpu_percent"] = fmt.Sprintf("%.2f", cpu)
	}
	if threads, err := p.NumThreads(); err == nil {
		stats["threads"] = threads
	}
	return stats
}
