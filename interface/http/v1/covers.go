package v1

import (
	"context"
	"errors"
	"github.com/gorilla/mux"
	"github.com/shimmeringbee/somfycul/cover"
	"github.com/shimmeringbee/somfycul/gateway"
	"github.com/shimmeringbee/somfycul/interface/converters/exporter"
	"github.com/shimmeringbee/somfycul/interface/converters/invoker"
	"io"
	"net/http"
)

type coverController struct {
	mapper       gateway.Mapper
	coverInvoker invoker.Invoker
	coverExport  func(cover.Device) exporter.ExportedCover
}

func (c *coverController) listCovers(w http.ResponseWriter, r *http.Request) {
	covers := c.mapper.Covers()

	exported := make([]exporter.ExportedCover, 0, len(covers))
	for _, d := range covers {
		exported = append(exported, c.coverExport(d))
	}

	writeJSON(w, http.StatusOK, exported)
}

func (c *coverController) getCover(w http.ResponseWriter, r *http.Request) {
	d, found := c.mapper.Cover(mux.Vars(r)["identifier"])
	if !found {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, c.coverExport(d))
}

func (c *coverController) useCoverAction(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)

	d, found := c.mapper.Cover(params["identifier"])
	if !found {
		http.NotFound(w, r)
		return
	}

	var body []byte

	if r.Body != nil {
		var err error

		body, err = io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}

	data, err := c.coverInvoker(r.Context(), d, params["action"], body)
	if err != nil {
		if errors.Is(err, invoker.ActionNotSupported) {
			http.NotFound(w, r)
		} else if errors.Is(err, invoker.ActionUserError) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		} else if errors.Is(err, context.DeadlineExceeded) {
			http.Error(w, "Cover action exceeded permitted time.", http.StatusInternalServerError)
		} else {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}

		return
	}

	writeJSON(w, http.StatusOK, data)
}
