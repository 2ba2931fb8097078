package handler

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/chezmoi-app/chezmoi/internal/ctxkeys"
	"github.com/chezmoi-app/chezmoi/internal/service"
	"github.com/chezmoi-app/chezmoi/internal/validation"
)

const maxApplicationForm = 12 << 20

// Stored content types follow the validated extension, not the client header.
var cvContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

type IntakeHandler struct {
	intakeService *service.IntakeService
}

func NewIntakeHandler(intakeService *service.IntakeService) *IntakeHandler {
	return &IntakeHandler{intakeService: intakeService}
}

// JobApplication accepts a multipart form with an optional "cv" file (PDF or DOCX).
func (h *IntakeHandler) JobApplication(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxApplicationForm)
	err := r.ParseMultipartForm(maxApplicationForm)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid form submission")
		return
	}

	in := service.JobApplicationInput{
		FullName:   r.FormValue("fullName"),
		Email:      r.FormValue("email"),
		Phone:      r.FormValue("phone"),
		City:       r.FormValue("city"),
		Experience: r.FormValue("experience"),
		Motivation: r.FormValue("motivation"),
	}

	var cv *service.Upload
	file, header, err := r.FormFile("cv")
	if err == nil {
		defer func() {
			closeErr := file.Close()
			if closeErr != nil {
				slog.Error("failed to close uploaded file", "error", closeErr)
			}
		}()

		err = validation.ValidateCV(header)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		cv = &service.Upload{
			Filename:    header.Filename,
			ContentType: cvContentTypes[strings.ToLower(filepath.Ext(header.Filename))],
			Body:        file,
		}
	} else if err != http.ErrMissingFile {
		writeMessage(w, http.StatusBadRequest, "Invalid CV upload")
		return
	}

	app, err := h.intakeService.SubmitJobApplication(r.Context(), in, cv)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (h *IntakeHandler) ChefQuiz(w http.ResponseWriter, r *http.Request) {
	var in service.ChefQuizInput
	err := decodeJSON(w, r, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	quiz, err := h.intakeService.SubmitChefQuiz(r.Context(), ctxkeys.User(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}
