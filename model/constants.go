package model

const (
	DefaultInternalErrorMessage = "We are facing a problem with the subsystem"
	MissingCategoryErrorMessage = "The category is not existing, please verify the information"
	TitleTooShortMessage        = "You need to provide a title at least 15 chars"
	ContentTooShortMessage      = "You need to provide a title at least 20 chars"
	ContentBlocked              = "[Content has been blocked]"

	// GeneralPostCategoryUUID is the sentinel asset id used by the front-end
	// for topics that are general posts, not tied to a specific asset. Must
	// stay in sync with the front-end constant.
	GeneralPostCategoryUUID = "00000000-0000-0000-0000-111111111111"

	MinTitleSizeInChar   = 15
	MinContentSizeInChar = 20
)
