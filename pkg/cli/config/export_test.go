package config

import "time"

// NewDirectoryForTest creates a Directory config for testing purposes
func NewDirectoryForTest(url, bindDN, password, searchBase string) *Directory {
	return &Directory{
		url:        url,
		bindDN:     bindDN,
		password:   password,
		searchBase: searchBase,
	}
}

// NewDirectoryWithPhotoSizeForTest creates a Directory config with a photo size
func NewDirectoryWithPhotoSizeForTest(photoSize string) *Directory {
	return &Directory{
		url:        "ldap://localhost",
		searchBase: "dc=example,dc=com",
		photoSize:  photoSize,
	}
}

// NewPhotoForTest creates a Photo config for testing purposes
func NewPhotoForTest(url, username, password string, timeout time.Duration) *Photo {
	return &Photo{
		url:      url,
		username: username,
		password: password,
		timeout:  timeout,
	}
}

// NewAvatarForTest creates an Avatar config for testing purposes
func NewAvatarForTest(defaultMode string) *Avatar {
	return &Avatar{defaultMode: defaultMode}
}

// NewCacheForTest creates a Cache config for testing purposes
func NewCacheForTest(backend, redisAddr string) *Cache {
	return &Cache{
		backend:   backend,
		redisAddr: redisAddr,
	}
}

// NewGravatarForTest creates a Gravatar config for testing purposes
func NewGravatarForTest(enabled bool, filter string, pageSize int, refreshCron string) *Gravatar {
	return &Gravatar{
		enabled:     enabled,
		filter:      filter,
		pageSize:    pageSize,
		refreshCron: refreshCron,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}
