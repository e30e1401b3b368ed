package handlers

import (
	"strconv"

	"github.com/geocoder89/supportdesk/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// identityFrom pulls the authenticated user id out of the gin context. The
// auth middleware always sets it on protected routes; a miss means the route
// was wired without RequireAuth.
func identityFrom(ctx *gin.Context) (int64, bool) {
	id, ok := middlewares.UserIDFromContext(ctx)

	if !ok || id == 0 {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return 0, false
	}

	return id, true
}

// requireOwner is the single place ownership is enforced. Every case/comment
// operation that touches a specific resource goes through it; per-endpoint
// scoping drifted apart in an earlier iteration of this service and that is
// not coming back.
func requireOwner(ctx *gin.Context, identity, ownerID int64) bool {
	if identity != ownerID {
		RespondForbidden(ctx, "You do not have access to this resource")
		return false
	}

	return true
}

// pathID parses a numeric id path parameter, answering 400 on garbage.
func pathID(ctx *gin.Context, name string) (int64, bool) {
	raw := ctx.Param(name)

	id, err := strconv.ParseInt(raw, 10, 64)

	if err != nil || id < 1 {
		RespondBadRequest(ctx, "invalid "+name, gin.H{name: raw})
		return 0, false
	}

	return id, true
}
