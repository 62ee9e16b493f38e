// Package tools holds the capture tool registry: the persona each tool lends
// to caption prompts, the canned captions used when the enrichment service is
// down, and the whimsical location placeholders. Callers receive copies so the
// built-in tables stay immutable; tests substitute their own maps.
package tools

// CaptionDelimiter separates name from description in the combined caption
// format the enrichment service was taught ("名字｜描述").
const CaptionDelimiter = "｜"

// Tool describes one capture tool persona.
type Tool struct {
	ID       string
	Name     string
	Emoji    string
	Style    string
	Persona  string
	Examples []string
}

// FallbackCaption is one canned name/description pair for the local generator.
type FallbackCaption struct {
	Name        string
	Description string
}

var registry = map[string]Tool{
	"broom": {
		ID:    "broom",
		Name:  "扫帚",
		Emoji: "🧹",
		Style: "儿童脑内剧场童话混乱流",
		Persona: "你是一位5岁半的云端占卜小巫师，骑在爱打嗝的扫帚上给万物起魔法名字，" +
			"并用一句话神经质预言揭秘它们的秘密！",
		Examples: []string{
			"忧郁棉花糖云｜它说下午三点果酱会偷袭你的袖子！",
			"叛逆袜子云｜嘀！左脚袜正在南极教企鹅打扑克！",
			"金鱼泡泡预言｜咕噜噜…它说今晚梦是水母形状的！",
		},
	},
	"hand": {
		ID:    "hand",
		Name:  "手",
		Emoji: "✋",
		Style: "生活实诚风格",
		Persona: "你是一个特别会碎碎念的生活观察员，说话像朋友聚餐吐槽，带着丧、懒、" +
			"一点点好笑的自嘲。把云朵比作生活瞬间和情绪。",
		Examples: []string{
			"泡面等水开的五分钟｜五分钟内干不了任何事，但就是要坐着等",
			"这团云是'不想社交'本人｜已读不回气质MAX",
			"差点迟到云（已经绝望）｜今天的希望只维持到地铁口",
		},
	},
	"catPaw": {
		ID:    "catPaw",
		Name:  "猫爪",
		Emoji: "🐾",
		Style: "猫主子视角",
		Persona: "你是一只独自在天台观察天空的猫主子，为了记录心情、记仇、炫耀而命名。" +
			"看云的方式带着猫的傲慢和撒娇。",
		Examples: []string{
			"刚舔完又飞走的云（不许抢）｜这是我的。没签名但你懂的",
			"软得不合理，必须霸占的云｜它今天必须给我躺",
			"我舔了一下，它不见了｜这很不负责任，我报警了",
		},
	},
	"glassCover": {
		ID:    "glassCover",
		Name:  "玻璃罩",
		Emoji: "🧊",
		Style: "文学策展风格",
		Persona: "你是一位精通中西方文学的云朵策展人，用文学典故重新解读天空，" +
			"对经典进行气象学改造。",
		Examples: []string{
			"《社畜与云》｜离职意向浓度达73%，预计晚高峰将有轻微压抑感",
			"卡夫卡式焦虑（已扩散至平流层）｜本云无法判断是否拥有自由意志",
			"《等待戈多》的气象版｜什么也没发生，可能明天也不会",
		},
	},
}

var fallbackCaptions = map[string][]FallbackCaption{
	"broom": {
		{Name: "魔法云朵", Description: "这朵云在施展神秘魔法！"},
		{Name: "童话天空", Description: "那些年追过的蜻蜓，都变成了云"},
		{Name: "梦境碎片", Description: "时光倒流，重回无忧岁月"},
		{Name: "飞行棉花糖", Description: "怀念那个相信魔法的自己"},
	},
	"hand": {
		{Name: "实在云", Description: "实实在在的一团云"},
		{Name: "生活云", Description: "生活就是这么朴实"},
		{Name: "朴实云朵", Description: "手感确实不错"},
		{Name: "接地气的云", Description: "简单粗暴，直接有效"},
	},
	"catPaw": {
		{Name: "软萌云", Description: "喵～软软的触感"},
		{Name: "毛球云", Description: "毛茸茸的云朵收藏"},
		{Name: "可爱云朵", Description: "猫咪视角的天空"},
		{Name: "喵星云", Description: "午后慵懒时光的见证"},
	},
	"glassCover": {
		{Name: "艺术云", Description: "当代艺术的静默表达"},
		{Name: "静默之云", Description: "玻璃与云的对话"},
		{Name: "展览品云", Description: "策展人眼中的天空切片"},
		{Name: "哲学云朵", Description: "艺术化的自然标本"},
	},
}

var locationPlaceholders = map[string]string{
	"broom":      "所有可能性的交汇处",
	"hand":       "摸鱼时区深处",
	"catPaw":     "躲猫猫冠军认证点🐾",
	"glassCover": "意念定位中…",
}

// GenericLocationPlaceholder is the last-resort address for tools the
// placeholder table does not know.
const GenericLocationPlaceholder = "未知位置"

// GenericFallbackCaption is used when a tool has no fallback table entry.
var GenericFallbackCaption = FallbackCaption{
	Name:        "神秘云朵",
	Description: "一朵很有故事的云。",
}

// Lookup returns the tool for id, with ok=false for unknown ids.
func Lookup(id string) (Tool, bool) {
	t, ok := registry[id]
	return t, ok
}

// All returns a copy of the registry.
func All() map[string]Tool {
	out := make(map[string]Tool, len(registry))
	for id, t := range registry {
		out[id] = t
	}
	return out
}

// DefaultFallbackCaptions returns a copy of the canned caption tables.
func DefaultFallbackCaptions() map[string][]FallbackCaption {
	out := make(map[string][]FallbackCaption, len(fallbackCaptions))
	for id, list := range fallbackCaptions {
		cp := make([]FallbackCaption, len(list))
		copy(cp, list)
		out[id] = cp
	}
	return out
}

// DefaultLocationPlaceholders returns a copy of the per-tool placeholder map.
func DefaultLocationPlaceholders() map[string]string {
	out := make(map[string]string, len(locationPlaceholders))
	for id, s := range locationPlaceholders {
		out[id] = s
	}
	return out
}
