// Package web serves a small operator dashboard for submitting PDFs
// and watching extraction progress. It proxies to the JSON API so the
// browser never talks to the queue directly.
package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
)

type Web struct {
	tpl      *template.Template
	username string
	password string
	port     string
}

// New builds a dashboard proxying to the JSON API on addr, the same
// listen address the API server binds.
func New(addr string) *Web {
	return &Web{
		tpl:      template.Must(template.New("web").Parse(pages)),
		username: os.Getenv("WEB_USERNAME"),
		password: os.Getenv("WEB_PASSWORD"),
		port:     listenPort(addr),
	}
}

// listenPort extracts the port from a listen address like ":8080" or
// "0.0.0.0:8080".
func listenPort(addr string) string {
	if i := strings.LastIndex(addr, ":"); i >= 0 && i+1 < len(addr) {
		return addr[i+1:]
	}
	return "8080"
}

func (w *Web) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/web/login", w.handleLogin)
	mux.HandleFunc("/web/logout", w.handleLogout)
	mux.HandleFunc("/web/", w.requireAuth(w.handleDashboard))
	mux.HandleFunc("/web/dashboard", w.requireAuth(w.handleDashboard))
	mux.HandleFunc("/web/extract", w.requireAuth(w.handleExtract))
	mux.HandleFunc("/web/upload", w.requireAuth(w.handleUpload))
	mux.HandleFunc("/web/progress/", w.requireAuth(w.handleProgress))
}

func (w *Web) render(wr http.ResponseWriter, name string, data any) {
	_ = w.tpl.ExecuteTemplate(wr, name, data)
}

func (w *Web) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(wr http.ResponseWriter, r *http.Request) {
		if w.username == "" || w.password == "" {
			http.Error(wr, "WEB_USERNAME/WEB_PASSWORD not set", http.StatusForbidden)
			return
		}
		c, err := r.Cookie("auth")
		if err != nil || c.Value != "1" {
			http.Redirect(wr, r, "/web/login", http.StatusSeeOther)
			return
		}
		next(wr, r)
	}
}

func (w *Web) handleLogin(wr http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.render(wr, "login", map[string]any{"Error": r.URL.Query().Get("error")})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Redirect(wr, r, "/web/login?error=invalid+form", http.StatusSeeOther)
			return
		}
		if r.Form.Get("username") == w.username && r.Form.Get("password") == w.password {
			http.SetCookie(wr, &http.Cookie{Name: "auth", Value: "1", Path: "/", HttpOnly: true})
			http.Redirect(wr, r, "/web/dashboard", http.StatusSeeOther)
			return
		}
		http.Redirect(wr, r, "/web/login?error=invalid+credentials", http.StatusSeeOther)
	default:
		wr.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (w *Web) handleLogout(wr http.ResponseWriter, r *http.Request) {
	http.SetCookie(wr, &http.Cookie{Name: "auth", Value: "", Path: "/", MaxAge: -1})
	http.Redirect(wr, r, "/web/login", http.StatusSeeOther)
}

func (w *Web) handleDashboard(wr http.ResponseWriter, r *http.Request) {
	w.render(wr, "dashboard", map[string]any{"Username": w.username})
}

// handleExtract forwards a path/URL submission to the JSON API.
func (w *Web) handleExtract(wr http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(wr, "invalid form", http.StatusBadRequest)
		return
	}
	body := map[string]any{
		"file_path": r.Form.Get("file_path"),
	}
	b, _ := json.Marshal(body)
	url := fmt.Sprintf("http://127.0.0.1:%s/extract", w.port)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		http.Error(wr, "request failed", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	wr.Header().Set("Content-Type", "application/json")
	wr.WriteHeader(resp.StatusCode)
	_, _ = wr.Write(out)
}

// handleUpload proxies a multipart upload from the dashboard to
// /extract_upload.
func (w *Web) handleUpload(wr http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		wr.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		http.Error(wr, "invalid multipart form", http.StatusBadRequest)
		return
	}

	var b bytes.Buffer
	mw := multipart.NewWriter(&b)

	file, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(wr, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()
	fw, err := mw.CreateFormFile("file", hdr.Filename)
	if err != nil {
		http.Error(wr, "upload error", http.StatusInternalServerError)
		return
	}
	if _, err := io.Copy(fw, file); err != nil {
		http.Error(wr, "upload error", http.StatusInternalServerError)
		return
	}
	if v := r.FormValue("write_overlays"); v != "" {
		_ = mw.WriteField("write_overlays", v)
	}
	_ = mw.Close()

	url := fmt.Sprintf("http://127.0.0.1:%s/extract_upload", w.port)
	req, _ := http.NewRequest(http.MethodPost, url, &b)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		http.Error(wr, "request failed", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()
	wr.Header().Set("Content-Type", "application/json")
	wr.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(wr, resp.Body)
}

func (w *Web) handleProgress(wr http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/web/progress/")
	url := fmt.Sprintf("http://127.0.0.1:%s/progress/%s", w.port, jobID)
	resp, err := http.Get(url)
	if err != nil {
		http.Error(wr, "progress failed", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()
	wr.Header().Set("Content-Type", "application/json")
	_, _ = io.Copy(wr, resp.Body)
}

const pages = `
{{define "login"}}<!doctype html>
<html><head><title>Text Extractor - Login</title></head>
<body>
<h2>Text Extractor</h2>
{{if .Error}}<p style="color:red">{{.Error}}</p>{{end}}
<form method="post" action="/web/login">
  <label>Username <input name="username"></label><br>
  <label>Password <input name="password" type="password"></label><br>
  <button type="submit">Login</button>
</form>
</body></html>{{end}}

{{define "dashboard"}}<!doctype html>
<html><head><title>Text Extractor</title></head>
<body>
<h2>Text Extractor</h2>
<p>Signed in as {{.Username}} - <a href="/web/logout">logout</a></p>

<h3>Extract by path or URL</h3>
<form method="post" action="/web/extract">
  <input name="file_path" size="60" placeholder="/data/doc.pdf, https://... or s3://bucket/key">
  <button type="submit">Extract</button>
</form>

<h3>Upload a PDF</h3>
<form method="post" action="/web/upload" enctype="multipart/form-data">
  <input type="file" name="file" accept="application/pdf">
  <label><input type="checkbox" name="write_overlays"> render overlays</label>
  <button type="submit">Upload</button>
</form>

<h3>Check progress</h3>
<form onsubmit="poll(event)">
  <input id="job" size="40" placeholder="job id">
  <button type="submit">Check</button>
</form>
<pre id="out"></pre>
<script>
async function poll(e) {
  e.preventDefault();
  const id = document.getElementById('job').value.trim();
  if (!id) return;
  const resp = await fetch('/web/progress/' + id);
  document.getElementById('out').textContent = await resp.text();
}
</script>
</body></html>{{end}}
`
