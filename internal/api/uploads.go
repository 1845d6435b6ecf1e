package api

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/Saurabhh-37/supportsync/internal/model"
)

// UploadAttachment sends r as the multipart "file" field, optionally linked to a ticket.
func (c *Client) UploadAttachment(ctx context.Context, filename string, r io.Reader, ticketID int) (model.Attachment, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return model.Attachment{}, err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return model.Attachment{}, err
	}
	if ticketID > 0 {
		if err := mw.WriteField("ticket_id", strconv.Itoa(ticketID)); err != nil {
			return model.Attachment{}, err
		}
	}
	if err := mw.Close(); err != nil {
		return model.Attachment{}, err
	}

	var a model.Attachment
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/api/upload/attachments",
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}, &a)
	return a, err
}

func (c *Client) DeleteAttachment(ctx context.Context, id int) error {
	return c.send(ctx, http.MethodDelete, "/api/upload/attachments/"+strconv.Itoa(id), nil, nil)
}
