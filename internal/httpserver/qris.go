package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/apiclient"
	"github.com/Skotchmaster/storefront/internal/logging"
)

func (h *StorefrontHTTP) QRISList(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "qris.list")

	files, err := h.API.ListQRIS(ctx)
	if err != nil {
		l.Warn("qris_list_failed", "error", err)
		return failUpstream(c, err)
	}

	urls := make([]string, len(files))
	for i, f := range files {
		urls[i] = apiclient.ImageURL(h.API.BaseURL(), f)
	}
	return c.JSON(http.StatusOK, map[string]any{"files": files, "urls": urls})
}

func (h *StorefrontHTTP) QRISUpload(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "qris.upload")

	fh, err := c.FormFile("qris")
	if err != nil {
		l.Warn("qris_upload_failed", "status", 400, "reason", "file missing", "error", err)
		return fail(c, http.StatusBadRequest, "Pilih file dulu!")
	}
	if fh.Size > maxUploadBytes {
		return fail(c, http.StatusRequestEntityTooLarge, "File terlalu besar")
	}
	f, err := fh.Open()
	if err != nil {
		l.Error("qris_upload_failed", "status", 500, "error", err)
		return fail(c, http.StatusInternalServerError, "cannot read file")
	}
	defer f.Close()

	if err := h.API.UploadQRIS(ctx, fh.Filename, f); err != nil {
		l.Warn("qris_upload_failed", "reason", "rejected by api", "error", err)
		return failUpstream(c, err)
	}

	l.Info("qris_upload_success", "file", fh.Filename)
	return c.JSON(http.StatusCreated, Response{Status: statusOK, Message: "QRIS berhasil diupload!"})
}

func (h *StorefrontHTTP) QRISDelete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "qris.delete")

	name := c.Param("name")
	if err := h.API.DeleteQRIS(ctx, name); err != nil {
		l.Warn("qris_delete_failed", "file", name, "error", err)
		return failUpstream(c, err)
	}

	l.Info("qris_delete_success", "file", name)
	return c.JSON(http.StatusOK, Response{Status: statusOK, Message: "QR dihapus!"})
}

func (h *StorefrontHTTP) QRISRandom(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "qris.random")

	u, err := h.API.RandomQRIS(ctx)
	if err != nil {
		l.Warn("qris_random_failed", "error", err)
		return failUpstream(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": apiclient.ImageURL(h.API.BaseURL(), u)})
}
