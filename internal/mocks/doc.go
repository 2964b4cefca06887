// Package mocks provides test doubles for the store and service interfaces.
//
// MockReviewItemStore uses function fields so a test can override a single
// method and inspect recorded calls. MockReviewService is built on testify's
// mock.Mock for handler tests that assert on expectations:
//
//	svc := &mocks.MockReviewService{}
//	svc.On("GetItem", mock.Anything, userID, itemID).Return(item, nil)
//	defer svc.AssertExpectations(t)
package mocks
