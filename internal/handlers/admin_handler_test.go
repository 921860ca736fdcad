package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sorokinportal/internal/security"
)

func TestAdminPage(t *testing.T) {
	srv := newTestServer(t, serverOptions{})
	admin := srv.register("principal")
	srv.register("pupil")

	rec := srv.get("/admin", admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"principal (admin)", "pupil", "2 users", `enctype="multipart/form-data"`} {
		if !strings.Contains(body, want) {
			t.Errorf("admin page missing %q", want)
		}
	}
}

func importRequest(t *testing.T, srv *testServer, session *http.Cookie, backup []byte, clearData bool) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if backup != nil {
		part, err := mw.CreateFormFile("backup_file", "backup.json")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		part.Write(backup)
	}
	if clearData {
		mw.WriteField("clear_data", "true")
	}
	mw.Close()

	token, err := srv.csrf.GenerateToken(session.Value)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/admin/backup/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(security.CSRFHeader, token)
	req.AddCookie(session)
	return req
}

func TestAdminExportImport(t *testing.T) {
	srv := newTestServer(t, serverOptions{})
	admin := srv.register("archivist")

	rec := srv.get("/admin/backup/export", admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment; filename=sorokin_backup_") {
		t.Fatalf("unexpected Content-Disposition %q", cd)
	}
	backup := rec.Body.Bytes()
	if !bytes.Contains(backup, []byte("archivist")) {
		t.Fatal("expected the export to contain the account")
	}

	t.Run("missing file", func(t *testing.T) {
		rec := srv.do(importRequest(t, srv, admin, nil, false))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Please select a backup file") {
			t.Fatal("expected a missing file message")
		}
	})

	t.Run("garbage file", func(t *testing.T) {
		rec := srv.do(importRequest(t, srv, admin, []byte("not json"), false))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("restore over cleared data", func(t *testing.T) {
		rec := srv.do(importRequest(t, srv, admin, backup, true))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "Imported 1 accounts.") {
			t.Fatal("expected an import summary")
		}
		srv.user("archivist")
	})
}
