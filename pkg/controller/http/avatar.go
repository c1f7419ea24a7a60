package http

import (
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ad2image/pkg/domain/types"
	"github.com/secmon-lab/ad2image/pkg/utils/errutil"
)

// avatarHandler serves GET /avatar?uid=&m=&size=
func (s *Server) avatarHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	uid := q.Get("uid")
	if uid == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("uid is required"), http.StatusBadRequest)
		return
	}

	mode := types.ParseMode(q.Get("m"), s.defaultMode)
	size, _ := types.ParseImageSize(q.Get("size"))

	data, err := s.uc.GetAvatar(ctx, uid, mode, size)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
		return
	}
	if len(data) == 0 {
		http.NotFound(w, r)
		return
	}

	writeImage(w, r, data)
}
