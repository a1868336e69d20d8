package requestdata

import (
  "context"
  "github.com/google/uuid"
)

var requestDataKey = struct{}{}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
  return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
  val := ctx.Value(requestDataKey)
  if rd, ok := val.(*RequestData); ok {
    return rd
  }
  return nil
}

type RequestData struct {
  TokenString       string
  UserID            uuid.UUID
}

// UserID is the shortcut used by services that only need the caller identity.
func UserIDFrom(ctx context.Context) uuid.UUID {
  if rd := GetRequestData(ctx); rd != nil {
    return rd.UserID
  }
  return uuid.Nil
}
