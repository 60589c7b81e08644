package handlers

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"safecampus/models"
	"safecampus/services"
	"safecampus/storage"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// EvidenceField is the multipart field evidence files are sent under.
const EvidenceField = "evidence"

// maxRequestBody caps a whole submission: every file at full size plus room for the text fields.
const maxRequestBody = storage.MaxFiles*storage.MaxFileSize + 1<<20

type createReportRequest struct {
	Type             string `form:"type" json:"type"`
	University       string `form:"university" json:"university"`
	Description      string `form:"description" json:"description"`
	ClientID         string `form:"clientId" json:"clientId"`
	Platform         string `form:"platform" json:"platform"`
	PlatformProfile  string `form:"platformProfile" json:"platformProfile"`
	SuspectName      string `form:"suspectName" json:"suspectName"`
	SuspectUsername  string `form:"suspectUsername" json:"suspectUsername"`
	SuspectContact   string `form:"suspectContact" json:"suspectContact"`
	IncidentDate     string `form:"incidentDate" json:"incidentDate"`
	IncidentLocation string `form:"incidentLocation" json:"incidentLocation"`
	Witnesses        string `form:"witnesses" json:"witnesses"`
	VictimContact    string `form:"victimContact" json:"victimContact"`
}

func (r createReportRequest) input() services.CreateReportInput {
	return services.CreateReportInput{
		Type:             r.Type,
		University:       r.University,
		Description:      r.Description,
		ClientID:         r.ClientID,
		Platform:         r.Platform,
		PlatformProfile:  r.PlatformProfile,
		SuspectName:      r.SuspectName,
		SuspectUsername:  r.SuspectUsername,
		SuspectContact:   r.SuspectContact,
		IncidentDate:     r.IncidentDate,
		IncidentLocation: r.IncidentLocation,
		Witnesses:        r.Witnesses,
		VictimContact:    r.VictimContact,
	}
}

// CreateReport handles anonymous report submission. Evidence files arrive as
// multipart parts; a plain JSON body is accepted for reports without files.
func (h *Handlers) CreateReport(c *gin.Context) {
	if c.Request.ContentLength > maxRequestBody {
		handleError(c, services.ErrPayloadTooLarge, "")
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBody)

	var req createReportRequest
	if err := c.ShouldBind(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handleError(c, services.ErrPayloadTooLarge, "")
			return
		}
		respondError(c, http.StatusBadRequest, "Invalid report submission")
		return
	}

	var files []*multipart.FileHeader
	if form := c.Request.MultipartForm; form != nil {
		defer form.RemoveAll()
		files = form.File[EvidenceField]
	}

	uploads, closeAll, err := openUploads(files)
	defer closeAll()
	if err != nil {
		log.Errorf("Failed to open evidence upload: %v", err)
		respondError(c, http.StatusBadRequest, "Invalid evidence upload")
		return
	}

	id, err := h.reports.Create(c.Request.Context(), req.input(), uploads)
	if err != nil {
		handleError(c, err, "Failed to create report")
		return
	}

	c.JSON(http.StatusCreated, models.CreateReportResponse{ID: id})
}

func openUploads(files []*multipart.FileHeader) ([]storage.Upload, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	uploads := make([]storage.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, err
		}
		opened = append(opened, f)
		uploads = append(uploads, storage.Upload{
			Filename:    fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		})
	}
	return uploads, closeAll, nil
}

// UpdateReport handles status and notes changes from admins.
func (h *Handlers) UpdateReport(c *gin.Context) {
	var req models.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	summary, err := h.reports.Update(c.Request.Context(), c.Param("id"), req.Status, req.AdminNotes)
	if err != nil {
		handleError(c, err, "Failed to update report")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// DeleteReport removes a report and its evidence.
func (h *Handlers) DeleteReport(c *gin.Context) {
	if err := h.reports.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err, "Failed to delete report")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListReports returns reports newest first, optionally filtered by status and university.
func (h *Handlers) ListReports(c *gin.Context) {
	filter := models.ReportFilter{
		Status:     c.Query("status"),
		University: c.Query("university"),
	}
	reports, err := h.reports.List(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err, "Failed to fetch reports")
		return
	}
	c.JSON(http.StatusOK, models.ReportsResponse{Reports: reports})
}

// GetReport returns a single report.
func (h *Handlers) GetReport(c *gin.Context) {
	report, err := h.reports.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err, "Failed to fetch report")
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

// ServeEvidence streams a stored evidence file.
func (h *Handlers) ServeEvidence(c *gin.Context) {
	name := c.Param("name")
	rc, err := h.reports.OpenEvidence(c.Request.Context(), storage.URLFor(name))
	if errors.Is(err, services.ErrNotFound) {
		respondError(c, http.StatusNotFound, "File not found")
		return
	}
	if err != nil {
		handleError(c, err, "Failed to read file")
		return
	}
	defer rc.Close()

	contentType, inline := evidenceContentType(name)
	headers := map[string]string{
		"Content-Security-Policy": "default-src 'none'; sandbox",
		"X-Content-Type-Options":  "nosniff",
	}
	if !inline {
		headers["Content-Disposition"] = mime.FormatMediaType("attachment", map[string]string{"filename": name})
	}
	c.DataFromReader(http.StatusOK, -1, contentType, rc, headers)
}

// evidenceContentType picks the type an evidence file is served with. Only
// images, audio, video and PDFs are shown inline; anything else is sent as an
// opaque download so uploaded markup never renders on the API origin.
func evidenceContentType(name string) (string, bool) {
	contentType := mime.TypeByExtension(strings.ToLower(path.Ext(name)))
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "application/octet-stream", false
	}
	switch {
	case mediaType == "image/svg+xml":
		return "application/octet-stream", false
	case strings.HasPrefix(mediaType, "image/"),
		strings.HasPrefix(mediaType, "audio/"),
		strings.HasPrefix(mediaType, "video/"),
		mediaType == "application/pdf":
		return contentType, true
	}
	return "application/octet-stream", false
}
