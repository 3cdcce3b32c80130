package control

import (
	"errors"

	"rungscan/internal/lifecycle"
	"rungscan/internal/program"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Code classifies a Controller error into the small vocabulary the
// transports (socket and HTTP) report to clients: OK for nil,
// InvalidArgument, FailedPrecondition, or Internal — status codes used
// as a vocabulary, without speaking actual gRPC wire format.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}

	var valErr *program.ValidationError
	if errors.As(err, &valErr) {
		return codes.InvalidArgument
	}

	var transErr *lifecycle.InvalidTransitionError
	if errors.As(err, &transErr) {
		return codes.FailedPrecondition
	}

	return codes.Internal
}

// ToStatus reports err as a *status.Status, for a transport that wants
// the conventional (code, message) shape without importing grpc/codes
// itself.
func ToStatus(err error) *status.Status {
	if err == nil {
		return status.New(codes.OK, "")
	}
	return status.New(Code(err), err.Error())
}
