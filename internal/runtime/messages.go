package runtime

// Assistant texts. Placeholders are filled with fmt.
const (
	msgWelcome          = "Hi! I'll help you set up your outreach. How would you like to start?"
	msgStartOver        = "No problem, let's start over. How would you like to start?"
	msgPathRetry        = "I didn't catch that. Pick one of the options below to get started."
	msgAskPlatforms     = "Which platforms should this campaign use?"
	msgPlatformsRetry   = "I couldn't match that to a platform. Which platforms should we use?"
	msgConfirmPlatforms = "You've selected %s. Do you want to add another platform or continue?"
	msgConfirmRetry     = "Please continue or add another platform."
	msgAskAnother       = "Which platform would you like to add?"
	msgAllPlatforms     = "All available platforms are already selected."
	msgAskFeatures      = "Which %s actions should we include?"
	msgFeaturesRetry    = "I couldn't match that to a %s action. Pick from the list below."
	msgAskDelay         = "How long should we wait before \"%s\"?"
	msgAskCondition     = "Should the next step wait until \"%s\"?"
	msgAskOnFalse       = "If \"%s\" doesn't happen, what should we do instead?"
	msgAskTemplate      = "What message should we use for \"%s\"? You can use {{first_name}} and {{company}}."
	msgUtilityRetry     = "I didn't understand that answer."
	msgAskLeadsPerDay   = "How many new leads should we reach per day?"
	msgAskCampaignDays  = "How many days should the campaign run?"
	msgAskCampaignName  = "What should we call this campaign?"
	msgComplete         = "Your workflow is ready: %d steps across %s. Launch the campaign when you're ready."
	msgRequirements     = "Tell me what you'd like to automate and who you want to reach."
	msgProfiling        = "Let's build your ideal customer profile. What does your company sell, and to whom?"
	msgProfilingDone    = "Thanks, your profile is complete. How would you like to continue?"
	msgFallback         = "Something went wrong on my side. Please try that again."
	msgLeadsSaved       = "Saved %d leads."
	msgLeadsSavedSkip   = "Saved %d leads and skipped %d duplicates."
	msgLeadsCancelled   = "Cancelled %d scheduled follow-ups and saved %d leads."
	msgDuplicates       = "%d of these leads already exist (%d are new). How would you like to proceed?"
	msgDuplicatesRetry  = "Please choose how to handle the duplicate leads."
	msgConfirmCancel    = "Following up now cancels the scheduled follow-ups of %d existing leads. Continue?"
	msgLaunched         = "Campaign \"%s\" is live."
	msgLaunchFailed     = "The campaign could not be launched. Your configuration is saved, and you can retry from the Campaigns view."

	defaultConnectionMessage = "Hi {{first_name}}, I'd love to connect."
	defaultLeadsPerDay       = 25
	defaultCampaignDays      = 14
)

// msgDependentsRemoved names chosen actions that left with an unchecked requirement.
const msgDependentsRemoved = "Removed %s because a step it requires was unchecked."

// Option labels.
const (
	labelLeadGeneration = "Lead generation"
	labelInbound        = "Inbound leads"
	labelAutomation     = "Automation"
	labelProfiling      = "Guided profiling"
	labelContinue       = "Continue"
	labelAddPlatform    = "Add another platform"
	labelLaunch         = "Launch campaign"
	labelStartOver      = "Start over"
	labelYes            = "Yes"
	labelNoCondition    = "No condition"
)

// Question keys attached to prompts that are not feature scoped.
const (
	questionPath       = "path"
	questionConfirm    = "platforms.confirm"
	questionDuplicates = "leads.duplicates"
	questionLaunch     = "launch"
)
