package websocket

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/htm/featureflag"
	"github.com/aukilabs/htm/models"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

const (
	// HeaderClientID carries the id a client uses across its connections.
	HeaderClientID = "X-Client-Id"

	MsgTypeLocateResponse = "locate_response"
	MsgTypeError          = "error"
)

// Msg is a message sent on a stream. Payload is encoded as JSON.
type Msg struct {
	Type    string
	Payload any
}

// TypeString returns the message type, used to label logs and metrics.
func (m Msg) TypeString() string {
	return m.Type
}

// NewErrorMsg returns a message that reports err for the request with the
// given id.
func NewErrorMsg(id string, err error) Msg {
	return Msg{
		Type:    MsgTypeError,
		Payload: models.NewErrorResponse(id, err),
	}
}

// StreamHandler answers locate requests received on a websocket connection.
type StreamHandler struct {
	Store             *models.IndexStore
	Flags             featureflag.FeatureFlag
	ClientIdleTimeout time.Duration

	conn     *websocket.Conn
	clientID string
}

func (h *StreamHandler) HandleConnect(conn *websocket.Conn) {
	h.conn = conn

	h.clientID = conn.Request().Header.Get(HeaderClientID)
	if h.clientID == "" {
		h.clientID = uuid.NewString()
	}
}

func (h *StreamHandler) HandleLocate(ctx context.Context, respond ResponseSender, req models.LocateRequest) error {
	record, err := h.locate(req)
	if err != nil {
		respond.Send(NewErrorMsg(req.ID, err))
		return nil
	}

	respond.Send(Msg{
		Type: MsgTypeLocateResponse,
		Payload: models.LocateResponse{
			ID:      req.ID,
			Variant: variant(req),
			Trixel:  record,
		},
	})
	return nil
}

func (h *StreamHandler) locate(req models.LocateRequest) (models.TrixelRecord, error) {
	switch variant(req) {
	case models.VariantSphere:
		direction, err := req.Direction()
		if err != nil {
			return models.TrixelRecord{}, err
		}

		t, err := h.Store.LocateSphere(direction)
		if err != nil {
			return models.TrixelRecord{}, err
		}
		return models.NewSphereTrixelRecord(t), nil

	case models.VariantPlane:
		if h.Flags.IsSet(featureflag.FlagDisablePlanarIndex) {
			return models.TrixelRecord{}, errors.New("planar index is disabled").
				WithType(models.ErrTypeBadRequest)
		}

		point, err := req.Point()
		if err != nil {
			return models.TrixelRecord{}, err
		}

		t, err := h.Store.LocatePlane(point)
		if err != nil {
			return models.TrixelRecord{}, err
		}
		return models.NewPlaneTrixelRecord(t), nil

	default:
		return models.TrixelRecord{}, errors.New("unknown variant").
			WithType(models.ErrTypeBadRequest).
			WithTag("variant", req.Variant)
	}
}

// Requests without variant target the sphere.
func variant(req models.LocateRequest) string {
	if req.Variant == "" {
		return models.VariantSphere
	}
	return req.Variant
}

// knownVariant is like variant but collapses unknown variants, so that client
// input does not create new log tags or metric labels.
func knownVariant(req models.LocateRequest) string {
	switch v := variant(req); v {
	case models.VariantSphere, models.VariantPlane:
		return v
	default:
		return "unknown"
	}
}

func (h *StreamHandler) HandleDisconnect(_ error) {
}

func (h *StreamHandler) Receiver() Receiver {
	return func() (models.LocateRequest, int, error) {
		var req models.LocateRequest

		var b []byte
		if err := websocket.Message.Receive(h.conn, &b); err != nil {
			return req, 0, err
		}

		if err := json.Unmarshal(b, &req); err != nil {
			return req, len(b), errors.New("decoding request failed").
				WithType(models.ErrTypeBadRequest).
				Wrap(err)
		}
		return req, len(b), nil
	}
}

func (h *StreamHandler) Sender() Sender {
	return func(msg Msg) (int, error) {
		b, err := json.Marshal(msg.Payload)
		if err != nil {
			return 0, errors.New("encoding message failed").
				WithTag("msg_type", msg.Type).
				Wrap(err)
		}

		if err := websocket.Message.Send(h.conn, string(b)); err != nil {
			return 0, err
		}
		return len(b), nil
	}
}

func (h *StreamHandler) Close() {
}

func (h *StreamHandler) IdleTimeout() time.Duration {
	return h.ClientIdleTimeout
}

func (h *StreamHandler) GetClientID() string {
	return h.clientID
}
