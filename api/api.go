package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/dgavriliu/lataverna/api/background"
	"github.com/dgavriliu/lataverna/api/middleware"
	"github.com/dgavriliu/lataverna/api/web"
	"github.com/dgavriliu/lataverna/assistant"
	"github.com/dgavriliu/lataverna/core/auth"
	"github.com/dgavriliu/lataverna/core/cart"
	"github.com/dgavriliu/lataverna/core/contact"
	"github.com/dgavriliu/lataverna/core/feedback"
	"github.com/dgavriliu/lataverna/core/menu"
	"github.com/dgavriliu/lataverna/core/order"
	"github.com/dgavriliu/lataverna/core/reservation"
	"github.com/dgavriliu/lataverna/core/user"
	"github.com/dgavriliu/lataverna/email"
	"github.com/dgavriliu/lataverna/rate"
	"github.com/dgavriliu/lataverna/ws"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	CorsOrigin       string
	Log              logrus.FieldLogger
	DB               *sqlx.DB
	Session          *scs.SessionManager
	Mailer           *email.Mailer
	Background       *background.Background
	Carts            *cart.Registry
	Hub              *ws.Hub
	Assistant        *assistant.Client
	Limiter          *rate.Limiter
	Providers        map[string]auth.Provider
	LoginRedirectURL string
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := auth.Authenticate(cfg.Session)
	admin := auth.Admin(cfg.Session)
	limited := middleware.RateLimit(cfg.Limiter)

	scoper := cart.SessionScoper{
		Session:  cfg.Session,
		ScopeFn:  auth.CartScope,
		Identity: auth.SessionIdentity,
	}

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(cfg.DB, cfg.Session, cfg.Carts), limited)
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.DB, cfg.Session, cfg.Carts), limited)
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session, cfg.Carts))
	a.Handle(http.MethodGet, "/auth/oauth-login/{provider}", auth.HandleOauthLogin(cfg.Session, cfg.Providers))
	a.Handle(http.MethodGet, "/auth/oauth-callback/{provider}", auth.HandleOauthCallback(cfg.DB, cfg.Session, cfg.Providers, cfg.LoginRedirectURL, cfg.Carts))

	a.Handle(http.MethodGet, "/users/current", user.HandleShowCurrent(cfg.DB), authen)
	a.Handle(http.MethodPut, "/users/current", user.HandleUpdateCurrent(cfg.DB), authen)

	a.Handle(http.MethodGet, "/menu/popular", menu.HandlePopular(cfg.DB))
	a.Handle(http.MethodGet, "/menu/subcategories", menu.HandleListSubcategories(cfg.DB))
	a.Handle(http.MethodGet, "/menu", menu.HandleList(cfg.DB))

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.Carts, scoper))
	a.Handle(http.MethodPut, "/cart/items", cart.HandleAddItem(cfg.DB, cfg.Carts, scoper))
	a.Handle(http.MethodPut, "/cart/items/{product_id}/quantity", cart.HandleSetQuantity(cfg.Carts, scoper))
	a.Handle(http.MethodDelete, "/cart/items/{product_id}", cart.HandleRemoveItem(cfg.Carts, scoper))
	a.Handle(http.MethodDelete, "/cart", cart.HandleClear(cfg.Carts, scoper))

	a.Handle(http.MethodPost, "/orders", order.HandlePlace(cfg.DB, cfg.Carts, scoper, cfg.Mailer, cfg.Background), limited)
	a.Handle(http.MethodGet, "/orders", order.HandleListOwn(cfg.DB), authen)

	a.Handle(http.MethodPost, "/reservations", reservation.HandleCreate(cfg.DB, cfg.Hub), limited)
	a.Handle(http.MethodGet, "/reservations/{id}", reservation.HandleShow(cfg.DB))
	a.Handle(http.MethodPut, "/reservations/{id}", reservation.HandleReschedule(cfg.DB))
	a.Handle(http.MethodDelete, "/reservations/{id}", reservation.HandleCancel(cfg.DB))

	a.Handle(http.MethodPost, "/feedback", feedback.HandleCreateFeedback(cfg.DB), limited)
	a.Handle(http.MethodPost, "/reviews/verify", feedback.HandleVerify(cfg.DB), limited)
	a.Handle(http.MethodPost, "/reviews", feedback.HandleCreateReviews(cfg.DB), limited)
	a.Handle(http.MethodGet, "/reviews/confirm", feedback.HandleConfirmReview(cfg.DB))
	a.Handle(http.MethodPost, "/products/{id}/reviews", feedback.HandleCreateDirectReview(cfg.DB, cfg.Mailer, cfg.Background), limited)
	a.Handle(http.MethodGet, "/products/{id}/reviews", feedback.HandleListByProduct(cfg.DB))

	a.Handle(http.MethodPost, "/contact", contact.HandleCreate(cfg.DB), limited)

	a.Handle(http.MethodPost, "/assistant", assistant.HandleAsk(cfg.DB, cfg.Assistant), limited)

	a.Handle(http.MethodGet, "/admin/orders", order.HandleAdminList(cfg.DB), admin)
	a.Handle(http.MethodPut, "/admin/orders/{id}/status", order.HandleUpdateStatus(cfg.DB), admin)
	a.Handle(http.MethodGet, "/admin/reservations", reservation.HandleAdminList(cfg.DB), admin)
	a.Handle(http.MethodPut, "/admin/reservations/{id}/accept", reservation.HandleAccept(cfg.DB, cfg.Mailer, cfg.Background), admin)
	a.Handle(http.MethodPut, "/admin/reservations/{id}/reject", reservation.HandleReject(cfg.DB, cfg.Mailer, cfg.Background), admin)
	a.Handle(http.MethodPost, "/admin/products", menu.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodPut, "/admin/products/{id}", menu.HandleUpdate(cfg.DB), admin)
	a.Handle(http.MethodDelete, "/admin/products/{id}", menu.HandleDelete(cfg.DB), admin)
	a.Handle(http.MethodGet, "/admin/reservations/ws", cfg.Hub.HandleSubscribe(), admin)
	a.Handle(http.MethodGet, "/admin/feedback", feedback.HandleAdminListFeedback(cfg.DB), admin)
	a.Handle(http.MethodGet, "/admin/dashboard", feedback.HandleAdminDashboard(cfg.DB), admin)
	a.Handle(http.MethodGet, "/admin/contact", contact.HandleAdminList(cfg.DB), admin)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
