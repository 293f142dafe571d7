package cache

import (
	"fmt"
	"time"
)

const (
	UserKeyPrefix               = "user:%d"
	ChallengeKeyPrefix          = "challenge:%d"
	ChallengeStatsKey           = "challenges:stats"
	CreatorChallengeStatsPrefix = "challenges:stats:creator:%d"
)

const (
	UserTTL           = 5 * time.Minute
	ChallengeTTL      = 2 * time.Minute
	ChallengeStatsTTL = 30 * time.Second
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ChallengeKey(challengeID uint) string {
	return fmt.Sprintf(ChallengeKeyPrefix, challengeID)
}

func CreatorChallengeStatsKey(creatorID uint) string {
	return fmt.Sprintf(CreatorChallengeStatsPrefix, creatorID)
}
