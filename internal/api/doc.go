// Package api handles incoming HTTP requests for the review scheduler:
// request decoding and validation, translation into review.Service calls and
// response formatting. Errors from the service layer are mapped to status
// codes by MapErrorToStatusCode and rendered with GetSafeErrorMessage so that
// storage details never reach clients.
package api
