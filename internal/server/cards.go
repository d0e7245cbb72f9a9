package server

import (
	"context"
	"errors"
	"net/http"
	"player-cards/internal/domain"
	"player-cards/internal/render"
	"player-cards/internal/service"
	"time"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

const (
	PlayerCardsPath         = "/playercards.v1.PlayerCards/"
	ListCharactersProcedure = PlayerCardsPath + "ListCharacters"
	HandleActionProcedure   = PlayerCardsPath + "HandleAction"
	GetCardProcedure        = PlayerCardsPath + "GetCard"
)

type RosterService interface {
	ListCharacters(ctx context.Context, user, uid int64, page int) (*service.Reply, error)
	HandleAction(ctx context.Context, user int64, raw string) (*service.Reply, error)
}

type CardRenderer interface {
	Prepare(ctx context.Context, uid int64, req service.CardRequest) (*service.CardPayload, error)
	RenderPayload(ctx context.Context, payload *service.CardPayload) (*render.Result, error)
}

type PlayerCardsServer struct {
	roster RosterService
	cards  CardRenderer
}

func NewPlayerCardsServer(roster *service.CardService, cards *service.Orchestrator) *PlayerCardsServer {
	return New(roster, cards)
}

func New(roster RosterService, cards CardRenderer) *PlayerCardsServer {
	return &PlayerCardsServer{roster: roster, cards: cards}
}

// Handler returns the path prefix and handler serving every procedure.
func (s *PlayerCardsServer) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	mux := http.NewServeMux()
	mux.Handle(ListCharactersProcedure, connect.NewUnaryHandler(ListCharactersProcedure, s.ListCharacters, opts...))
	mux.Handle(HandleActionProcedure, connect.NewUnaryHandler(HandleActionProcedure, s.HandleAction, opts...))
	mux.Handle(GetCardProcedure, connect.NewUnaryHandler(GetCardProcedure, s.GetCard, opts...))
	return PlayerCardsPath, mux
}

func (s *PlayerCardsServer) ListCharacters(ctx context.Context, req *connect.Request[ListCharactersRequest]) (*connect.Response[ReplyResponse], error) {
	defer logDuration(ctx, "ListCharacters", time.Now())

	if req.Msg.UID <= 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New(domain.UserMessage(domain.NewError(domain.KindInvalidIdentifier, nil))))
	}
	reply, err := s.roster.ListCharacters(ctx, req.Msg.UserID, req.Msg.UID, req.Msg.Page)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(toReplyResponse(reply)), nil
}

func (s *PlayerCardsServer) HandleAction(ctx context.Context, req *connect.Request[HandleActionRequest]) (*connect.Response[ReplyResponse], error) {
	defer logDuration(ctx, "HandleAction", time.Now())

	reply, err := s.roster.HandleAction(ctx, req.Msg.UserID, req.Msg.Token)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(toReplyResponse(reply)), nil
}

func (s *PlayerCardsServer) GetCard(ctx context.Context, req *connect.Request[GetCardRequest]) (*connect.Response[CardResponse], error) {
	defer logDuration(ctx, "GetCard", time.Now())

	if req.Msg.Character == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("character is required"))
	}
	payload, err := s.cards.Prepare(ctx, req.Msg.UID, service.CardRequest{Character: req.Msg.Character, Refresh: req.Msg.Refresh})
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	res, err := s.cards.RenderPayload(ctx, payload)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	body, err := toPayload(payload)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&CardResponse{Payload: body, Image: toImage(res)}), nil
}

var codes = map[domain.ErrorKind]connect.Code{
	domain.KindTimeout:            connect.CodeDeadlineExceeded,
	domain.KindRateLimited:        connect.CodeResourceExhausted,
	domain.KindServiceMaintenance: connect.CodeUnavailable,
	domain.KindServiceError:       connect.CodeUnavailable,
	domain.KindServiceUnknown:     connect.CodeUnavailable,
	domain.KindNotFound:           connect.CodeNotFound,
	domain.KindInvalidIdentifier:  connect.CodeInvalidArgument,
	domain.KindTransportError:     connect.CodeUnavailable,
	domain.KindNoShowcaseData:     connect.CodeFailedPrecondition,
	domain.KindCharacterNotFound:  connect.CodeNotFound,
	domain.KindMirrorFailure:      connect.CodeUnavailable,
	domain.KindProfileNotLoaded:   connect.CodeFailedPrecondition,
}

// toConnectError exposes only the fixed user message; causes stay in the log.
func toConnectError(ctx context.Context, err error) error {
	kind, ok := domain.KindOf(err)
	if !ok {
		zerolog.Ctx(ctx).Error().Err(err).Msg("request failed")
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}
	zerolog.Ctx(ctx).Warn().Err(err).Str("kind", string(kind)).Msg("request failed")
	code, ok := codes[kind]
	if !ok {
		code = connect.CodeUnknown
	}
	return connect.NewError(code, errors.New(domain.UserMessage(err)))
}

func logDuration(ctx context.Context, procedure string, start time.Time) {
	zerolog.Ctx(ctx).Debug().Str("procedure", procedure).Dur("duration", time.Since(start)).Msg("procedure finished")
}
