package web

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"guarulhosfacil/cases"
	"guarulhosfacil/limitation"
)

const (
	maxPhotoBytes    = 5 << 20
	maxDocumentBytes = 20 << 20
)

// ReportRequest is the JSON body of POST /api/cases.
type ReportRequest struct {
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"lat"`
	Longitude   *float64 `json:"lng"`
	DatesRequest
}

// DatesRequest carries the four limitation dates as entered.
type DatesRequest struct {
	TriggeringEvent string `json:"triggering_event_date" form:"triggering_event_date"`
	Registration    string `json:"registration_date" form:"registration_date"`
	Citation        string `json:"citation_date" form:"citation_date"`
	LastMovement    string `json:"last_movement_date" form:"last_movement_date"`
}

func (r DatesRequest) Dates() limitation.Dates {
	return limitation.Dates{
		TriggeringEvent: limitation.ParseDate(r.TriggeringEvent),
		Registration:    limitation.ParseDate(r.Registration),
		Citation:        limitation.ParseDate(r.Citation),
		LastMovement:    limitation.ParseDate(r.LastMovement),
	}
}

// ReportForm holds a parsed report as it was typed, so a rejected form can be
// rendered again with the visitor's input.
type ReportForm struct {
	Category    string
	Description string
	Latitude    string
	Longitude   string
	Dates       DatesRequest
	Photo       *cases.Photo
}

// NewReportForm returns a form prefilled with the city centre coordinates.
func NewReportForm() *ReportForm {
	return &ReportForm{Latitude: "-23.456000", Longitude: "-46.543000"}
}

// ParseAndValidate reads the report from a JSON body or a multipart form. It
// checks syntax only; domain rules are enforced by the case service.
func (f *ReportForm) ParseAndValidate(c *gin.Context) (cases.SubmitParams, error) {
	verr := NewValidationError()

	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req ReportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			verr.Set(GeneralErrorKey, "estrutura da requisição inválida")
			return cases.SubmitParams{}, verr
		}
		f.Category = req.Category
		f.Description = req.Description
		f.Dates = req.DatesRequest
		// the form defaults only prefill the page, an API caller must send both
		f.Latitude = formatCoordinate(req.Latitude)
		f.Longitude = formatCoordinate(req.Longitude)
	} else {
		f.Category = c.PostForm("category")
		f.Description = c.PostForm("description")
		f.Latitude = c.PostForm("lat")
		f.Longitude = c.PostForm("lng")
		if err := c.ShouldBind(&f.Dates); err != nil {
			verr.Set(GeneralErrorKey, "estrutura da requisição inválida")
		}
		f.validateAndSetPhoto(c, verr)
	}

	lat := f.parseCoordinate(f.Latitude, "lat", verr)
	lng := f.parseCoordinate(f.Longitude, "lng", verr)
	if !verr.Empty() {
		return cases.SubmitParams{}, verr
	}

	return cases.SubmitParams{
		Category:    strings.TrimSpace(f.Category),
		Description: f.Description,
		Latitude:    lat,
		Longitude:   lng,
		Photo:       f.Photo,
		Dates:       f.Dates.Dates(),
	}, nil
}

func formatCoordinate(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func (f *ReportForm) parseCoordinate(raw, field string, verr *ValidationError) float64 {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if raw == "" {
		verr.Set(field, "campo obrigatório")
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		verr.Set(field, "número inválido")
		return 0
	}
	return v
}

func (f *ReportForm) validateAndSetPhoto(c *gin.Context, verr *ValidationError) {
	fh, err := c.FormFile("photo")
	if err != nil {
		// no file part, or an empty file input
		return
	}
	if fh.Size > maxPhotoBytes {
		verr.Set("photo", fmt.Sprintf("a foto deve ter no máximo %d MB", maxPhotoBytes>>20))
		return
	}
	data, err := readUpload(fh)
	if err != nil {
		verr.Set("photo", "não foi possível ler a foto")
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	f.Photo = &cases.Photo{ContentType: contentType, Data: data}
}

// readDocument returns the uploaded PDF from the "file" form field.
func readDocument(c *gin.Context) ([]byte, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		verr := NewValidationError()
		verr.Set("file", "envie um arquivo PDF")
		return nil, verr
	}
	if fh.Size > maxDocumentBytes {
		verr := NewValidationError()
		verr.Set("file", fmt.Sprintf("o arquivo deve ter no máximo %d MB", maxDocumentBytes>>20))
		return nil, verr
	}
	return readUpload(fh)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
