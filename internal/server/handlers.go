package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/dyluth/roadmapper/pkg/roadmap"
)

// credentialsRequest is the body of the login and create-user endpoints.
type credentialsRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	ProjectID string `json:"projectId"`
}

// LoginResponse is returned by a successful project login.
type LoginResponse struct {
	Success bool         `json:"success"`
	User    roadmap.User `json:"user"`
}

// AdminLoginResponse is returned by a successful administrator login.
type AdminLoginResponse struct {
	Success  bool   `json:"success"`
	Token    string `json:"token"`
	Username string `json:"username"`
}

// SetupResponse reports what /api/admin/setup did.
type SetupResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Migrated    bool   `json:"migrated"`
	Admin       string `json:"admin"`
	DefaultUser string `json:"defaultUser"`
}

// adminToken is a placeholder session token; admin endpoints do not check it.
const adminToken = "admin-token-mock"

// decodeCredentials reads a credentials body. A malformed body yields the
// zero request, which then fails the required-field check.
func decodeCredentials(r *http.Request) credentialsRequest {
	var req credentialsRequest
	_ = json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req)
	return req
}

// roadmapHandler handles GET and POST /api/roadmap.
func (s *Server) roadmapHandler(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("projectId")

	switch r.Method {
	case http.MethodGet:
		if projectID == "" {
			writeError(w, http.StatusBadRequest, "Missing projectId", nil)
			return
		}

		data, err := s.client.GetRoadmapJSON(r.Context(), projectID)
		if err != nil {
			if roadmap.IsNotFound(err) {
				writeJSON(w, http.StatusOK, nil)
				return
			}
			log.Printf("[Server] Failed to load roadmap for project '%s': %v", projectID, err)
			writeError(w, http.StatusInternalServerError, "Failed to load data", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(data)

	case http.MethodPost:
		if projectID == "" {
			writeError(w, http.StatusBadRequest, "Missing projectId", nil)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Failed to read request body", err)
			return
		}

		var doc roadmap.Roadmap
		if err := json.Unmarshal(body, &doc); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid roadmap JSON", err)
			return
		}
		if err := doc.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid roadmap", err)
			return
		}

		// The raw body is stored so fields unknown to this server survive
		if err := s.client.SaveRoadmapJSON(r.Context(), projectID, body); err != nil {
			log.Printf("[Server] Failed to save roadmap for project '%s': %v", projectID, err)
			writeError(w, http.StatusInternalServerError, "Failed to save data", err)
			return
		}

		logEvent("roadmap_saved", map[string]interface{}{
			"project_id": projectID,
			"updated_at": doc.UpdatedAt,
			"lanes":      len(doc.Lanes),
			"bytes":      len(body),
		})
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})

	default:
		methodNotAllowed(w)
	}
}

// loginHandler handles POST /api/login.
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	req := decodeCredentials(r)
	if req.Username == "" || req.Password == "" || req.ProjectID == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields", nil)
		return
	}

	user, err := s.client.Authenticate(r.Context(), req.Username, req.Password, req.ProjectID)
	if err != nil {
		if errors.Is(err, roadmap.ErrInvalidCredentials) {
			logEvent("login_rejected", map[string]interface{}{
				"username":   req.Username,
				"project_id": req.ProjectID,
			})
			writeError(w, http.StatusUnauthorized, "Invalid credentials or Project ID", nil)
			return
		}
		log.Printf("[Server] Login error for '%s': %v", req.Username, err)
		writeError(w, http.StatusInternalServerError, "Login failed", err)
		return
	}

	logEvent("login", map[string]interface{}{
		"username":   user.Username,
		"project_id": user.ProjectID,
	})
	writeJSON(w, http.StatusOK, LoginResponse{Success: true, User: *user})
}

// adminLoginHandler handles POST /api/admin/login.
func (s *Server) adminLoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	req := decodeCredentials(r)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing username or password", nil)
		return
	}

	err := s.client.AuthenticateAdmin(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, AdminLoginResponse{
			Success:  true,
			Token:    adminToken,
			Username: req.Username,
		})
	case errors.Is(err, roadmap.ErrAdminNotInitialised):
		writeError(w, http.StatusUnauthorized, "Admin not initialized. Run /api/admin/setup first.", nil)
	case errors.Is(err, roadmap.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
	default:
		log.Printf("[Server] Admin login error: %v", err)
		writeError(w, http.StatusInternalServerError, "Login failed", err)
	}
}

// createUserHandler handles POST /api/admin/create-user.
func (s *Server) createUserHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	req := decodeCredentials(r)
	if req.Username == "" || req.Password == "" || req.ProjectID == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields", nil)
		return
	}

	user := &roadmap.User{Username: req.Username, Password: req.Password, ProjectID: req.ProjectID}
	if err := s.client.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, roadmap.ErrUserExists) {
			writeError(w, http.StatusConflict, "User already exists", nil)
			return
		}
		log.Printf("[Server] Failed to create user '%s': %v", req.Username, err)
		writeError(w, http.StatusInternalServerError, "Failed to create user", err)
		return
	}

	logEvent("user_created", map[string]interface{}{
		"username":   user.Username,
		"project_id": user.ProjectID,
	})
	writeJSON(w, http.StatusOK, LoginResponse{
		Success: true,
		User:    roadmap.User{Username: user.Username, ProjectID: user.ProjectID},
	})
}

// setupHandler handles /api/admin/setup. GET is accepted so the endpoint
// can be triggered from a browser.
func (s *Server) setupHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	admin, user := s.opts.Admin, s.opts.DefaultUser
	result, err := s.client.Setup(r.Context(), &admin, &user)
	if err != nil {
		log.Printf("[Server] Setup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Setup failed", err)
		return
	}

	if result.Migrated {
		log.Printf("[Server] Migrated %s to %s", roadmap.LegacyRoadmapKey, roadmap.RoadmapKey(user.ProjectID))
	} else {
		log.Printf("[Server] No existing data found in %s", roadmap.LegacyRoadmapKey)
	}

	writeJSON(w, http.StatusOK, SetupResponse{
		Success:     true,
		Message:     fmt.Sprintf("Admin setup complete for project '%s'", user.ProjectID),
		Migrated:    result.Migrated,
		Admin:       result.Admin,
		DefaultUser: result.DefaultUser,
	})
}
