package assistant

import (
	"context"
	"net/http"

	"github.com/dgavriliu/lataverna/api/web"
	"github.com/dgavriliu/lataverna/api/weberr"
	"github.com/dgavriliu/lataverna/validate"
	"github.com/jmoiron/sqlx"
)

type AskIn struct {
	Question string `json:"question" validate:"required,max=500"`
}

type AskOut struct {
	Answer string `json:"answer"`
}

func HandleAsk(db *sqlx.DB, client *Client) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in AskIn
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		sections, err := FetchMenu(ctx, db)
		if err != nil {
			return err
		}

		answer, err := client.Ask(ctx, sections, in.Question)
		if err != nil {
			return weberr.NewError(err, "the assistant is unavailable right now", http.StatusBadGateway)
		}

		return web.Respond(ctx, w, AskOut{Answer: answer}, http.StatusOK)
	}
}
