package config

import "time"

type Config struct {
	Web       Web
	DB        DB
	Cors      Cors
	Oauth     Oauth
	Email     Email
	Assistant Assistant
	Rate      Rate
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,mask"`
	Host       string `conf:"default:localhost"`
	Name       string `conf:"default:lataverna"`
	DisableTLS bool   `conf:"default:true"`
}

type Cors struct {
	Origin string `conf:"default:http://localhost:5173"`
}

type Oauth struct {
	DiscoveryTimeout time.Duration `conf:"default:30s"`
	LoginRedirectURL string        `conf:"default:http://localhost:5173"`
	Google           Provider
}

type Provider struct {
	Client      string `conf:"mask"`
	Secret      string `conf:"mask"`
	URL         string `conf:"default:https://accounts.google.com"`
	RedirectURL string `conf:"default:http://localhost:8000/auth/oauth-callback/google"`
}

type Email struct {
	Host     string `conf:"default:localhost"`
	Port     string `conf:"default:25"`
	Address  string `conf:"default:noreply@lataverna.ro"`
	Password string `conf:"mask"`

	// Links embedded in outbound emails.
	ReviewConfirmURL     string `conf:"default:http://localhost:5173/reviews/confirm"`
	ReservationManageURL string `conf:"default:http://localhost:5173/reservations"`
}

type Assistant struct {
	APIKey  string        `conf:"mask"`
	URL     string        `conf:"default:https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent"`
	Timeout time.Duration `conf:"default:30s"`
}

type Rate struct {
	Burst         int     `conf:"default:5"`
	ExpiryMinutes int     `conf:"default:30"`
	RPS           float64 `conf:"default:1"`
}
