package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/tosih/rigol-bin-tool/pkg/analysis"
	"github.com/tosih/rigol-bin-tool/pkg/export"
	"github.com/tosih/rigol-bin-tool/pkg/models"
	"github.com/tosih/rigol-bin-tool/pkg/reader"
)

//go:embed templates/*
var templates embed.FS

// FileResponse describes a capture without its samples.
type FileResponse struct {
	Filename      string            `json:"filename"`
	Magic         string            `json:"magic"`
	Version       string            `json:"version"`
	FileSize      uint64            `json:"fileSize"`
	WaveformCount uint32            `json:"waveformCount"`
	Waveforms     []WaveformSummary `json:"waveforms"`
}

// WaveformSummary is the header view of one waveform.
type WaveformSummary struct {
	Index      int     `json:"index"`
	Name       string  `json:"name"`
	Model      string  `json:"model"`
	Type       string  `json:"type"`
	Samples    int     `json:"samples"`
	XIncrement float64 `json:"xIncrement"`
	XOrigin    float64 `json:"xOrigin"`
	XUnits     string  `json:"xUnits"`
	YUnits     string  `json:"yUnits"`
	Captured   string  `json:"captured,omitempty"`
}

type Server struct {
	binFolder   string
	binFiles    []string
	port        int
	maxPoints   int
	openBrowser bool
	reader      *reader.Reader
}

// Options configures a Server.
type Options struct {
	Port        int
	MaxPoints   int
	OpenBrowser bool
	Reader      *reader.Reader
}

// NewServer serves the .bin files in filename, or in its directory when
// filename is a file.
func NewServer(filename string, opts Options) *Server {
	var binFolder string
	fileInfo, err := os.Stat(filename)
	if err == nil && fileInfo.IsDir() {
		binFolder = filename
	} else {
		binFolder = filepath.Dir(filename)
	}

	// Scan for all .bin files in the folder
	binFiles, err := findBinFiles(binFolder)
	if err != nil {
		pterm.Warning.Printf("Error scanning for bin files: %v\n", err)
		binFiles = []string{}
		if fileInfo != nil && !fileInfo.IsDir() {
			binFiles = append(binFiles, filename)
		}
	}

	if len(binFiles) == 0 {
		pterm.Warning.Println("No .bin files found in directory")
	} else {
		pterm.Info.Printf("Found %d .bin file(s) in %s\n", len(binFiles), binFolder)
	}

	rd := opts.Reader
	if rd == nil {
		rd = reader.New()
	}
	return &Server{
		binFolder:   binFolder,
		binFiles:    binFiles,
		port:        opts.Port,
		maxPoints:   opts.MaxPoints,
		openBrowser: opts.OpenBrowser,
		reader:      rd,
	}
}

func findBinFiles(dir string) ([]string, error) {
	var binFiles []string

	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(strings.ToLower(file.Name()), ".bin") {
			binFiles = append(binFiles, filepath.Join(dir, file.Name()))
		}
	}

	return binFiles, nil
}

// Handler returns the HTTP routes of the viewer.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/files", s.handleFileList)
	mux.HandleFunc("GET /api/file", s.handleFile)
	mux.HandleFunc("GET /api/waveform/{index}", s.handleWaveform)
	return mux
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	url := fmt.Sprintf("http://localhost%s", addr)

	pterm.DefaultHeader.WithFullWidth().
		WithBackgroundStyle(pterm.NewStyle(pterm.BgCyan)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Println("Waveform Web Viewer Started")

	pterm.Info.Printf("Serving web interface at %s\n", url)
	pterm.Info.Println("Press Ctrl+C to stop the server")
	pterm.Println()

	if s.openBrowser {
		openBrowser(url)
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- server.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	content, err := templates.ReadFile("templates/index.html")
	if err != nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(content)
}

func (s *Server) handleFileList(w http.ResponseWriter, r *http.Request) {
	fileList := make([]map[string]string, len(s.binFiles))
	for i, fullPath := range s.binFiles {
		fileList[i] = map[string]string{
			"path": fullPath,
			"name": filepath.Base(fullPath),
		}
	}

	writeJSON(w, fileList)
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	file, ok := s.decodeRequested(w, r)
	if !ok {
		return
	}

	response := FileResponse{
		Filename:      filepath.Base(file.Path),
		Magic:         string(file.Header.Magic[:]),
		Version:       file.Header.Version,
		FileSize:      file.Header.FileSize,
		WaveformCount: file.Header.WaveformCount,
		Waveforms:     make([]WaveformSummary, 0, len(file.Waveforms)),
	}
	for i := range file.Waveforms {
		wf := &file.Waveforms[i]
		summary := WaveformSummary{
			Index:      wf.Index,
			Name:       wf.Label(),
			Model:      wf.Header.Model,
			Type:       wf.Header.Type.String(),
			Samples:    wf.Buffer.Len(),
			XIncrement: wf.Header.XIncrement,
			XOrigin:    wf.Header.XOrigin,
			XUnits:     wf.Header.XUnits.String(),
			YUnits:     wf.Header.YUnits.String(),
		}
		if !wf.Header.Date.IsZero() {
			summary.Captured = wf.Header.Date.Format(models.TimestampLayout)
		}
		response.Waveforms = append(response.Waveforms, summary)
	}

	writeJSON(w, response)
}

func (s *Server) handleWaveform(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || idx < 0 {
		http.Error(w, "Invalid waveform index", http.StatusBadRequest)
		return
	}

	limit := s.maxPoints
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 2 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(l, s.maxPoints)
	}

	file, ok := s.decodeRequested(w, r)
	if !ok {
		return
	}
	if idx >= len(file.Waveforms) {
		http.Error(w, "Invalid waveform index", http.StatusNotFound)
		return
	}

	wf := &file.Waveforms[idx]
	indices := analysis.DecimateIndices(wf.Buffer.Len(), limit)
	writeJSON(w, export.NewWaveformDocument(wf, indices))
}

// decodeRequested decodes the file named by the "file" query parameter, or
// the first known file. Only files found at startup are served.
func (s *Server) decodeRequested(w http.ResponseWriter, r *http.Request) (*models.File, bool) {
	filename := r.URL.Query().Get("file")
	if filename == "" {
		if len(s.binFiles) == 0 {
			http.Error(w, "No bin files available", http.StatusBadRequest)
			return nil, false
		}
		filename = s.binFiles[0]
	}

	path, ok := s.resolve(filename)
	if !ok {
		http.Error(w, "Unknown file", http.StatusNotFound)
		return nil, false
	}

	file, err := s.reader.ReadFile(path)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error decoding file: %v", err), http.StatusUnprocessableEntity)
		return nil, false
	}
	return file, true
}

func (s *Server) resolve(name string) (string, bool) {
	for _, p := range s.binFiles {
		if p == name || filepath.Base(p) == name {
			return p, true
		}
	}
	return "", false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("Error encoding response: %v", err), http.StatusInternalServerError)
	}
}
