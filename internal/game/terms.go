package game

// 内置词库
var (
	Idioms = []string{
		"一举两得", "两全其美", "美不胜收", "收获颇丰", "丰功伟绩",
		"绩效考核", "核心价值", "值此机会", "会心一笑", "笑逐颜开",
		"开天辟地", "地动山摇", "摇头晃脑", "脑洞大开", "开门见山",
		"山明水秀", "秀外慧中", "中流砥柱", "柱天立地", "地久天长",
		"长此以往", "往来无阻", "阻断电路", "路不拾遗", "力挽狂澜",
		"澜沧江水", "水滴石穿", "穿针引线", "线路规划", "规划蓝图",
	}

	ChainWords = []string{
		"苹果", "橙子", "香蕉", "西瓜", "菠萝", "草莓", "蓝莓", "樱桃",
		"荔枝", "龙眼", "芒果", "葡萄", "柚子", "石榴", "山楂", "杨梅",
		"猕猴桃", "柠檬", "李子", "桃子", "梨子", "椰子", "榴莲", "枇杷",
	}

	GuessWords = []string{
		"电脑", "手机", "书籍", "音乐", "电影", "运动", "食物", "动物",
		"植物", "城市", "国家", "职业", "季节", "天气", "颜色", "交通",
		"学校", "医院", "商店", "银行", "餐厅", "公园", "海洋", "山脉",
	}
)
