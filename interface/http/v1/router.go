package v1

import (
	"github.com/gorilla/mux"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/somfycul/gateway"
	"github.com/shimmeringbee/somfycul/interface/converters/exporter"
	"github.com/shimmeringbee/somfycul/interface/converters/invoker"
	"github.com/shimmeringbee/somfycul/interface/http/auth"
	"net/http"
	"time"
)

const DefaultHeartbeatInterval = 30 * time.Second

func ConstructRouter(mapper gateway.Mapper, l logwrap.Logger, ap auth.AuthenticationProvider, eventbus gateway.EventSubscriber) http.Handler {
	protected := mux.NewRouter()

	cc := coverController{
		mapper:       mapper,
		coverInvoker: invoker.InvokeCoverAction,
		coverExport:  exporter.ExportCover,
	}

	ec := eventsController{
		eventbus:    eventbus,
		eventMapper: coverEventMapper{mapper: mapper},
		logger:      l,
		heartbeat:   DefaultHeartbeatInterval,
	}

	protected.HandleFunc("/covers", cc.listCovers).Methods(http.MethodGet)
	protected.HandleFunc("/covers/{identifier}", cc.getCover).Methods(http.MethodGet)
	protected.HandleFunc("/covers/{identifier}/actions/{action}", cc.useCoverAction).Methods(http.MethodPost)

	protected.HandleFunc("/events", ec.serveServerSideEvent).Methods(http.MethodGet)
	protected.HandleFunc("/websocket", ec.serveWebsocket).Methods(http.MethodGet)

	apiRoot := mux.NewRouter()
	apiRoot.Handle("/auth/type", authenticationType(ap)).Methods(http.MethodGet)
	apiRoot.Handle("/auth/check", ap.AuthenticationMiddleware(http.HandlerFunc(authenticationCheck))).Methods(http.MethodGet)
	apiRoot.PathPrefix("/auth").Handler(ap.AuthenticationRouter())
	apiRoot.PathPrefix("/").Handler(ap.AuthenticationMiddleware(protected))

	return apiRoot
}
