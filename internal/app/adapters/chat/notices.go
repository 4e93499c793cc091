package chat

import "strings"

// noticeOps maps the server's NOTICE msg-id to the correlated operation it
// settles. Whether a given id means success or failure is decided by the
// operation's own validator; this table only routes.
var noticeOps = map[string]string{
	"ban_success":         "ban",
	"already_banned":      "ban",
	"usage_ban":           "ban",
	"bad_ban_admin":       "ban",
	"bad_ban_anon":        "ban",
	"bad_ban_broadcaster": "ban",
	"bad_ban_global_mod":  "ban",
	"bad_ban_mod":         "ban",
	"bad_ban_self":        "ban",
	"bad_ban_staff":       "ban",

	"unban_success":    "unban",
	"bad_unban_no_ban": "unban",
	"usage_unban":      "unban",

	"timeout_success":         "timeout",
	"usage_timeout":           "timeout",
	"bad_timeout_admin":       "timeout",
	"bad_timeout_anon":        "timeout",
	"bad_timeout_broadcaster": "timeout",
	"bad_timeout_duration":    "timeout",
	"bad_timeout_global_mod":  "timeout",
	"bad_timeout_mod":         "timeout",
	"bad_timeout_self":        "timeout",
	"bad_timeout_staff":       "timeout",

	"untimeout_success": "untimeout",
	"usage_untimeout":   "untimeout",

	"mod_success":    "mod",
	"usage_mod":      "mod",
	"bad_mod_banned": "mod",
	"bad_mod_mod":    "mod",

	"unmod_success": "unmod",
	"usage_unmod":   "unmod",
	"bad_unmod_mod": "unmod",

	"vip_success":                    "vip",
	"usage_vip":                      "vip",
	"bad_vip_grantee_banned":         "vip",
	"bad_vip_grantee_already_vip":    "vip",
	"bad_vip_max_vips_reached":       "vip",
	"bad_vip_achievement_incomplete": "vip",

	"unvip_success":             "unvip",
	"usage_unvip":               "unvip",
	"bad_unvip_grantee_not_vip": "unvip",

	"slow_on":        "slow",
	"usage_slow_on":  "slow",
	"slow_off":       "slowoff",
	"usage_slow_off": "slowoff",

	"followers_on":       "followers",
	"followers_on_zero":  "followers",
	"usage_followers_on": "followers",

	"followers_off":       "followersoff",
	"usage_followers_off": "followersoff",

	"emote_only_on":          "emoteonly",
	"already_emote_only_on":  "emoteonly",
	"emote_only_off":         "emoteonlyoff",
	"already_emote_only_off": "emoteonlyoff",

	"r9k_on":         "uniquechat",
	"already_r9k_on": "uniquechat",
	"usage_r9k_on":   "uniquechat",

	"r9k_off":         "uniquechatoff",
	"already_r9k_off": "uniquechatoff",
	"usage_r9k_off":   "uniquechatoff",

	"usage_clear": "clear",

	"msg_channel_suspended": "join",
	"msg_banned":            "join",
	"msg_room_not_found":    "join",

	"whisper_banned":               "whisper",
	"whisper_banned_recipient":     "whisper",
	"whisper_invalid_args":         "whisper",
	"whisper_invalid_login":        "whisper",
	"whisper_invalid_self":         "whisper",
	"whisper_limit_per_min":        "whisper",
	"whisper_limit_per_sec":        "whisper",
	"whisper_restricted":           "whisper",
	"whisper_restricted_recipient": "whisper",
}

// authNoticeTexts is the fixed fallback table for pre-welcome NOTICEs that
// carry no msg-id. The server's free text is not a documented contract, so
// nothing beyond these exact substrings is ever matched.
var authNoticeTexts = []string{
	"Login unsuccessful",
	"Login authentication failed",
	"Error logging in",
	"Improperly formatted auth",
	"Invalid NICK",
}

func isAuthFailure(text string) bool {
	for _, t := range authNoticeTexts {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
