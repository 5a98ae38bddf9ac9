// Package parser talks to the external document-conversion service that
// turns a PDF into markdown plus rendered table and picture snapshots.
package parser

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/paperdeck/paperdeck/internal/domain"
)

// Client converts a PDF into its parsed representation.
type Client interface {
	Parse(ctx context.Context, pdf []byte, fileName string) (*domain.ParsedDocument, error)
}

// HTTPClient calls the conversion service over HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a client for the conversion service at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// convertOptions mirror the conversion service's pipeline switches. OCR and
// table-structure analysis stay off; table and picture images are rendered at
// double scale, page images are not rendered at all.
type convertOptions struct {
	DoOCR                 bool    `json:"do_ocr"`
	DoTableStructure      bool    `json:"do_table_structure"`
	TableStructureMode    string  `json:"table_structure_mode"`
	ImagesScale           float64 `json:"images_scale"`
	GeneratePageImages    bool    `json:"generate_page_images"`
	GenerateTableImages   bool    `json:"generate_table_images"`
	GeneratePictureImages bool    `json:"generate_picture_images"`
}

func defaultConvertOptions() convertOptions {
	return convertOptions{
		DoOCR:                 false,
		DoTableStructure:      false,
		TableStructureMode:    "accurate",
		ImagesScale:           2.0,
		GeneratePageImages:    false,
		GenerateTableImages:   true,
		GeneratePictureImages: true,
	}
}

type convertElement struct {
	Kind  string `json:"kind"`
	Image string `json:"image,omitempty"`
}

type convertResponse struct {
	Markdown string           `json:"markdown"`
	Elements []convertElement `json:"elements"`
	Error    string           `json:"error,omitempty"`
}

// Parse submits the PDF for conversion and decodes the element stream.
func (c *HTTPClient) Parse(ctx context.Context, pdf []byte, fileName string) (*domain.ParsedDocument, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	opts, err := json.Marshal(defaultConvertOptions())
	if err != nil {
		return nil, domain.WrapError(domain.KindParse, err, "failed to encode conversion options")
	}
	if err := mw.WriteField("options", string(opts)); err != nil {
		return nil, domain.WrapError(domain.KindParse, err, "failed to build conversion request")
	}
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, domain.WrapError(domain.KindParse, err, "failed to build conversion request")
	}
	if _, err := part.Write(pdf); err != nil {
		return nil, domain.WrapError(domain.KindParse, err, "failed to build conversion request")
	}
	if err := mw.Close(); err != nil {
		return nil, domain.WrapError(domain.KindParse, err, "failed to build conversion request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/convert", &body)
	if err != nil {
		return nil, domain.WrapError(domain.KindParse, err, "failed to create conversion request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.KindParse, err, "conversion service unreachable")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.WrapError(domain.KindParse, err, "failed to read conversion response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, domain.Parsef("conversion service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var cr convertResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return nil, domain.WrapError(domain.KindParse, err, "failed to decode conversion response")
	}
	if cr.Error != "" {
		return nil, domain.Parsef("conversion failed: %s", cr.Error)
	}

	doc := &domain.ParsedDocument{Markdown: cr.Markdown}
	for i, el := range cr.Elements {
		kind := domain.ElementKind(el.Kind)
		switch kind {
		case domain.ElementText, domain.ElementTable, domain.ElementPicture:
		default:
			return nil, domain.Parsef("unknown element kind %q at index %d", el.Kind, i)
		}

		var img []byte
		if el.Image != "" {
			img, err = base64.StdEncoding.DecodeString(el.Image)
			if err != nil {
				return nil, domain.WrapError(domain.KindParse, err, "failed to decode image for element %d", i)
			}
		}
		doc.Elements = append(doc.Elements, domain.DocumentElement{Kind: kind, Image: img})
	}
	return doc, nil
}

var _ Client = (*HTTPClient)(nil)
