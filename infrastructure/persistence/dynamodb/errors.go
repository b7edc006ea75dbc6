package dynamodb

import (
	"errors"
	"fmt"

	"ideapardaz/application/ports"

	"github.com/aws/smithy-go"
)

// ErrConcurrentModification is returned when another writer committed
// between reading the revision and writing the batch
var ErrConcurrentModification = fmt.Errorf("concurrent modification: %w", ports.ErrRevisionConflict)

// classify maps DynamoDB API errors that mean "lost the revision race" to
// ErrConcurrentModification and leaves everything else alone
func classify(err error) error {
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return err
	}
	switch ae.ErrorCode() {
	case "ConditionalCheckFailedException", "TransactionCanceledException":
		return errors.Join(ErrConcurrentModification, err)
	}
	return err
}

// Retryable reports whether a failed call may succeed when repeated unchanged.
// Throttling and transient service faults qualify; a lost revision race does not.
func Retryable(err error) bool {
	if errors.Is(err, ErrConcurrentModification) {
		return false
	}
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return false
	}
	switch ae.ErrorCode() {
	case "ProvisionedThroughputExceededException",
		"ThrottlingException",
		"RequestLimitExceeded",
		"InternalServerError",
		"ServiceUnavailable",
		"TransactionInProgressException",
		"TransactionConflictException":
		return true
	}
	return ae.ErrorFault() == smithy.FaultServer
}
