package util

import (
	"container/list"
	"os"
	"strconv"
	"sync"

	"gorm.io/gorm"
)

// UserProfile is the subset of user data the request-logging path needs.
type UserProfile struct {
	Email string
	Role  string
}

// LRU cache for userID -> profile, so the endpoint logger does not hit the
// users table on every request.
type profileEntry struct {
	userID  uint
	profile UserProfile
}

type profileLRU struct {
	mu       sync.Mutex
	ll       *list.List
	cache    map[uint]*list.Element
	capacity int
}

var profileCache *profileLRU

// InitUserProfileCache initializes the LRU cache with given capacity.
// If capacity <= 0, a default of 1000 is used.
func InitUserProfileCache(capacity int) {
	if capacity <= 0 {
		capacity = 1000
	}
	profileCache = &profileLRU{
		ll:       list.New(),
		cache:    make(map[uint]*list.Element),
		capacity: capacity,
	}
}

// UserProfileCacheGet returns the cached profile and true if present.
func UserProfileCacheGet(userID uint) (UserProfile, bool) {
	if profileCache == nil {
		return UserProfile{}, false
	}
	profileCache.mu.Lock()
	defer profileCache.mu.Unlock()
	if ele, ok := profileCache.cache[userID]; ok {
		profileCache.ll.MoveToFront(ele)
		if e, ok := ele.Value.(profileEntry); ok {
			return e.profile, true
		}
	}
	return UserProfile{}, false
}

// UserProfileCacheSet stores the profile for a userID in the cache.
func UserProfileCacheSet(userID uint, profile UserProfile) {
	if profileCache == nil {
		return
	}
	profileCache.mu.Lock()
	defer profileCache.mu.Unlock()
	if ele, ok := profileCache.cache[userID]; ok {
		profileCache.ll.MoveToFront(ele)
		ele.Value = profileEntry{userID: userID, profile: profile}
		return
	}
	ele := profileCache.ll.PushFront(profileEntry{userID: userID, profile: profile})
	profileCache.cache[userID] = ele
	if profileCache.ll.Len() > profileCache.capacity {
		// evict least recently used
		tail := profileCache.ll.Back()
		if tail != nil {
			if e, ok := tail.Value.(profileEntry); ok {
				delete(profileCache.cache, e.userID)
			}
			profileCache.ll.Remove(tail)
		}
	}
}

// GetUserProfile returns the email and role name for userID using the cache,
// falling back to a users/roles join. A DB hit populates the cache.
func GetUserProfile(db *gorm.DB, userID uint) UserProfile {
	if userID == 0 {
		return UserProfile{}
	}
	if profile, ok := UserProfileCacheGet(userID); ok {
		return profile
	}
	if db == nil {
		return UserProfile{}
	}
	var row struct {
		Email string
		Role  string
	}
	err := db.Table("users").
		Select("users.email, roles.name as role").
		Joins("LEFT JOIN roles ON users.role_id = roles.id").
		Where("users.id = ?", userID).
		Take(&row).Error
	if err != nil {
		return UserProfile{}
	}
	profile := UserProfile{Email: row.Email, Role: row.Role}
	if profile.Email != "" || profile.Role != "" {
		UserProfileCacheSet(userID, profile)
	}
	return profile
}

// InitUserProfileCacheFromEnv initializes the cache using the env var USER_PROFILE_CACHE_SIZE
func InitUserProfileCacheFromEnv() {
	sizeStr := os.Getenv("USER_PROFILE_CACHE_SIZE")
	if sizeStr == "" {
		InitUserProfileCache(0)
		return
	}
	if n, err := strconv.Atoi(sizeStr); err == nil {
		InitUserProfileCache(n)
		return
	}
	InitUserProfileCache(0)
}
