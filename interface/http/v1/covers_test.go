package v1

import (
	"encoding/json"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/shimmeringbee/somfycul/cover"
	"github.com/shimmeringbee/somfycul/gateway"
	"github.com/shimmeringbee/somfycul/interface/converters/exporter"
	"github.com/shimmeringbee/somfycul/interface/http/auth/null"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func mockCover(id string, position int) *cover.MockDevice {
	d := &cover.MockDevice{}
	d.On("Identifier").Return(id).Maybe()
	d.On("Info").Return(cover.Info{Name: "cover " + id, Address: id, DeviceClass: "shutter"}).Maybe()
	d.On("Status").Return(cover.Status{Position: &position, Key: 1, Code: 2}).Maybe()
	return d
}

func router(mapper gateway.Mapper) http.Handler {
	return ConstructRouter(mapper, logwrap.New(discard.Discard()), null.Authenticator{}, gateway.NewEventBus())
}

func TestCoverController_listCovers(t *testing.T) {
	t.Run("lists every cover with its state", func(t *testing.T) {
		a := mockCover("AAAAAA", 0)
		b := mockCover("BBBBBB", 100)

		mapper := &gateway.MockMapper{}
		mapper.On("Covers").Return([]cover.Device{a, b})
		defer mapper.AssertExpectations(t)

		rr := httptest.NewRecorder()
		router(mapper).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/covers", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

		var covers []exporter.ExportedCover
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &covers))

		require.Len(t, covers, 2)
		assert.Equal(t, "AAAAAA", covers[0].Identifier)
		assert.True(t, covers[0].State.IsClosed)
		assert.Equal(t, "BBBBBB", covers[1].Identifier)
		assert.Equal(t, 100, *covers[1].State.Position)
	})
}

func TestCoverController_getCover(t *testing.T) {
	t.Run("returns a single cover", func(t *testing.T) {
		mapper := &gateway.MockMapper{}
		mapper.On("Cover", "AAAAAA").Return(mockCover("AAAAAA", 50), true)
		defer mapper.AssertExpectations(t)

		rr := httptest.NewRecorder()
		router(mapper).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/covers/AAAAAA", nil))

		require.Equal(t, http.StatusOK, rr.Code)

		var exported exporter.ExportedCover
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &exported))
		assert.Equal(t, "cover AAAAAA", exported.Name)
		assert.Equal(t, "shutter", exported.DeviceClass)
	})

	t.Run("returns 404 for an unknown cover", func(t *testing.T) {
		mapper := &gateway.MockMapper{}
		mapper.On("Cover", "FFFFFF").Return((*cover.MockDevice)(nil), false)
		defer mapper.AssertExpectations(t)

		rr := httptest.NewRecorder()
		router(mapper).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/covers/FFFFFF", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestCoverController_useCoverAction(t *testing.T) {
	t.Run("invokes the action and returns the new state", func(t *testing.T) {
		d := mockCover("AAAAAA", 20)
		d.On("Open", mock.Anything).Return(nil)
		defer d.AssertExpectations(t)

		mapper := &gateway.MockMapper{}
		mapper.On("Cover", "AAAAAA").Return(d, true)

		rr := httptest.NewRecorder()
		router(mapper).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/covers/AAAAAA/actions/open", nil))

		require.Equal(t, http.StatusOK, rr.Code)

		var state exporter.ExportedCoverState
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
		assert.Equal(t, 20, *state.Position)
	})

	t.Run("passes the body to set_position", func(t *testing.T) {
		d := mockCover("AAAAAA", 20)
		d.On("SetPosition", mock.Anything, 60).Return(nil)
		defer d.AssertExpectations(t)

		mapper := &gateway.MockMapper{}
		mapper.On("Cover", "AAAAAA").Return(d, true)

		rr := httptest.NewRecorder()
		router(mapper).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/covers/AAAAAA/actions/set_position", strings.NewReader(`{"Position":60}`)))

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("returns 400 for an invalid position", func(t *testing.T) {
		d := mockCover("AAAAAA", 20)
		d.On("SetPosition", mock.Anything, 150).Return(cover.ErrInvalidPosition)

		mapper := &gateway.MockMapper{}
		mapper.On("Cover", "AAAAAA").Return(d, true)

		rr := httptest.NewRecorder()
		router(mapper).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/covers/AAAAAA/actions/set_position", strings.NewReader(`150`)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("returns 404 for an unknown action", func(t *testing.T) {
		mapper := &gateway.MockMapper{}
		mapper.On("Cover", "AAAAAA").Return(mockCover("AAAAAA", 20), true)

		rr := httptest.NewRecorder()
		router(mapper).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/covers/AAAAAA/actions/tilt", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("returns 404 for an unknown cover", func(t *testing.T) {
		mapper := &gateway.MockMapper{}
		mapper.On("Cover", "FFFFFF").Return((*cover.MockDevice)(nil), false)

		rr := httptest.NewRecorder()
		router(mapper).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/covers/FFFFFF/actions/open", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
