package classifier

import (
	"regexp"
	"sort"

	"github.com/pricecart/pricecart/internal/models"
)

// Keyword weights per category. English keywords come from the market's
// storefront copy; Arabic keywords are the standard Egyptian-market grocery
// vocabulary for the same items.
var categoryKeywords = map[models.Category]map[string]float64{
	models.CategoryVegetables: {
		"tomato": 1.0, "tomatoes": 1.0, "potato": 1.0, "potatoes": 1.0,
		"onion": 1.0, "onions": 1.0, "carrot": 1.0, "carrots": 1.0,
		"cucumber": 1.0, "lettuce": 1.0, "spinach": 1.0, "cabbage": 1.0,
		"pepper": 0.8, "capsicum": 1.0, "broccoli": 1.0, "cauliflower": 1.0,
		"zucchini": 1.0, "eggplant": 1.0, "garlic": 1.0, "ginger": 1.0,
		"celery": 1.0, "radish": 1.0, "beetroot": 1.0, "leek": 1.0,
		"okra": 1.0, "mushroom": 0.9, "mushrooms": 0.9, "corn": 0.8,
		"peas": 0.8, "beans": 0.7,
		"طماطم": 1.0, "بطاطس": 1.0, "بصل": 1.0, "جزر": 1.0,
		"خيار": 1.0, "خس": 1.0, "سبانخ": 1.0, "ملفوف": 1.0,
		"vegetable": 0.9, "vegetables": 0.9, "veggie": 0.8, "produce": 0.7,
	},
	models.CategoryFruits: {
		"apple": 1.0, "apples": 1.0, "banana": 1.0, "bananas": 1.0,
		"orange": 1.0, "oranges": 1.0, "grape": 1.0, "grapes": 1.0,
		"strawberry": 1.0, "strawberries": 1.0, "mango": 1.0, "mangoes": 1.0,
		"pineapple": 1.0, "watermelon": 1.0, "melon": 1.0, "peach": 1.0,
		"pear": 1.0, "cherry": 1.0, "cherries": 1.0, "plum": 1.0,
		"kiwi": 1.0, "avocado": 1.0, "lemon": 1.0, "lime": 1.0,
		"grapefruit": 1.0, "pomegranate": 1.0, "blueberry": 1.0,
		"raspberry": 1.0, "coconut": 1.0, "dates": 1.0, "figs": 1.0,
		"apricot": 1.0,
		"تفاح":    1.0, "موز": 1.0, "برتقال": 1.0, "عنب": 1.0,
		"فراولة": 1.0, "مانجو": 1.0, "أناناس": 1.0, "بطيخ": 1.0,
		"fruit": 0.9, "fruits": 0.9, "citrus": 0.8, "berries": 0.8,
	},
	models.CategoryMeat: {
		"chicken": 1.0, "beef": 1.0, "lamb": 1.0, "mutton": 1.0,
		"turkey": 1.0, "duck": 1.0, "veal": 1.0,
		"breast": 0.7, "thigh": 0.7, "wing": 0.7, "drumstick": 0.8,
		"steak": 0.9, "chops": 0.9, "mince": 0.9, "fillet": 0.8,
		"ribs": 0.9, "sausage": 0.9, "bacon": 1.0, "salami": 1.0,
		"fish": 0.9, "salmon": 1.0, "tuna": 1.0, "shrimp": 1.0,
		"prawns": 1.0, "crab": 1.0, "calamari": 1.0, "sardines": 1.0,
		"tilapia": 1.0,
		"دجاج":    1.0, "لحم": 1.0, "خروف": 1.0, "بقري": 1.0,
		"سمك": 1.0, "جمبري": 1.0, "كابوريا": 1.0,
		"meat": 0.9, "poultry": 0.9, "seafood": 0.9, "halal": 0.6,
		"butcher": 0.8,
	},
	models.CategoryDairy: {
		"milk": 1.0, "cheese": 1.0, "butter": 1.0, "cream": 0.8,
		"yogurt": 1.0, "yoghurt": 1.0, "kefir": 1.0, "labneh": 1.0,
		"mozzarella": 1.0, "cheddar": 1.0, "feta": 1.0, "parmesan": 1.0,
		"ricotta": 1.0, "eggs": 1.0, "egg": 1.0, "dozen": 0.7,
		"لبن": 1.0, "حليب": 1.0, "جبن": 1.0, "جبنة": 1.0,
		"زبدة": 1.0, "زبادي": 1.0, "بيض": 1.0, "كريمة": 0.8,
		"dairy": 1.0, "lactose": 0.7, "pasteurized": 0.6,
		"full fat": 0.6, "low fat": 0.6, "skim": 0.7,
	},
	models.CategoryBakery: {
		"bread": 1.0, "loaf": 0.9, "baguette": 1.0, "rolls": 0.8,
		"pita": 1.0, "tortilla": 1.0, "bagel": 1.0, "croissant": 1.0,
		"muffin": 1.0, "toast": 0.8, "cake": 1.0, "cupcake": 1.0,
		"tart": 0.9, "pastry": 1.0, "donut": 1.0, "brownie": 1.0,
		"cookie": 0.8,
		"خبز":    1.0, "عيش": 1.0, "كيك": 1.0, "كعك": 1.0,
		"كرواسون": 1.0, "بسكويت": 0.8,
		"bakery": 1.0, "baked": 0.8, "sourdough": 0.8, "multigrain": 0.7,
	},
	models.CategoryBeverages: {
		"water": 0.9, "juice": 1.0, "soda": 1.0, "cola": 1.0,
		"pepsi": 1.0, "sprite": 1.0, "fanta": 1.0, "tea": 1.0,
		"coffee": 1.0, "espresso": 1.0, "smoothie": 1.0, "lemonade": 1.0,
		"kombucha": 1.0,
		"عصير":     1.0, "مياه": 0.9, "شاي": 1.0, "قهوة": 1.0,
		"كولا": 1.0, "مشروب": 0.8,
		"drink": 0.8, "beverage": 1.0, "carbonated": 0.7, "sparkling": 0.7,
	},
	models.CategoryPantry: {
		"rice": 1.0, "pasta": 1.0, "noodles": 1.0, "cereal": 1.0,
		"oats": 1.0, "quinoa": 1.0, "flour": 1.0, "couscous": 1.0,
		"lentils": 1.0, "chickpeas": 1.0, "soup": 0.9, "broth": 1.0,
		"sauce": 0.7, "salt": 1.0, "sugar": 1.0, "honey": 1.0,
		"oil": 0.9, "vinegar": 1.0, "mustard": 1.0, "ketchup": 1.0,
		"mayonnaise": 1.0, "spices": 0.9, "seasoning": 0.9,
		"vanilla": 1.0, "yeast": 1.0, "cocoa": 1.0,
		"أرز": 1.0, "مكرونة": 1.0, "دقيق": 1.0, "سكر": 1.0,
		"ملح": 1.0, "زيت": 0.9, "عسل": 1.0, "صلصة": 0.7,
		"pantry": 1.0, "staple": 0.8, "preserves": 0.8,
	},
	models.CategorySnacks: {
		"chips": 1.0, "crisps": 1.0, "crackers": 1.0, "pretzels": 1.0,
		"popcorn": 1.0, "wafers": 1.0, "nuts": 1.0, "almonds": 1.0,
		"cashews": 1.0, "peanuts": 1.0, "pistachios": 1.0,
		"chocolate": 1.0, "candy": 1.0, "gummy": 1.0, "marshmallow": 1.0,
		"شيبسي": 1.0, "شوكولاتة": 1.0, "حلوى": 1.0, "لوز": 1.0,
		"فستق": 1.0, "سوداني": 1.0,
		"snack": 1.0, "snacks": 1.0, "crunchy": 0.7, "crispy": 0.7,
	},
	models.CategoryFrozen: {
		"frozen": 1.0, "ice cream": 1.0, "sorbet": 1.0, "gelato": 1.0,
		"popsicle": 1.0,
		"مثلجات":   1.0, "مجمد": 1.0, "آيس كريم": 1.0,
		"freezer": 0.7, "thaw": 0.7,
	},
	models.CategoryHousehold: {
		"detergent": 1.0, "soap": 0.8, "cleaner": 1.0, "disinfectant": 1.0,
		"bleach": 1.0, "dishwashing": 1.0, "laundry": 1.0,
		"tissues": 1.0, "napkins": 1.0, "foil": 0.9, "batteries": 1.0,
		"candles": 1.0, "matches": 1.0,
		"منظف": 1.0, "صابون": 0.8, "مطهر": 1.0, "مناديل": 1.0,
		"بطاريات":  1.0,
		"cleaning": 1.0, "household": 1.0, "supplies": 0.8,
	},
	models.CategoryPersonalCare: {
		"shampoo": 1.0, "conditioner": 1.0, "toothpaste": 1.0,
		"toothbrush": 1.0, "mouthwash": 1.0, "deodorant": 1.0,
		"perfume": 1.0, "lotion": 1.0, "moisturizer": 1.0,
		"sunscreen": 1.0, "cleanser": 1.0, "serum": 1.0, "razor": 1.0,
		"makeup": 1.0, "lipstick": 1.0, "mascara": 1.0,
		"شامبو": 1.0, "معجون أسنان": 1.0, "عطر": 1.0,
		"كريم": 0.7, "مزيل عرق": 1.0, "غسول": 1.0,
		"hygiene": 1.0, "skincare": 1.0, "cosmetics": 1.0, "grooming": 1.0,
	},
	models.CategoryBabyCare: {
		"baby": 1.0, "infant": 1.0, "newborn": 1.0, "toddler": 0.8,
		"diapers": 1.0, "nappies": 1.0, "wipes": 1.0, "formula": 1.0,
		"pacifier": 1.0, "teething": 1.0, "stroller": 1.0,
		"طفل": 1.0, "رضيع": 1.0, "حفاضات": 1.0,
		"pediatric": 1.0, "nursery": 0.8, "hypoallergenic": 0.7,
	},
	models.CategoryHealth: {
		"medicine": 1.0, "tablets": 1.0, "capsules": 1.0, "syrup": 0.9,
		"ointment": 1.0, "vitamin": 1.0, "supplement": 1.0,
		"calcium": 1.0, "zinc": 1.0, "magnesium": 1.0, "omega": 1.0,
		"probiotics": 1.0, "multivitamin": 1.0, "aspirin": 1.0,
		"ibuprofen": 1.0, "antacid": 1.0, "thermometer": 1.0,
		"bandage": 1.0,
		"دواء":    1.0, "حبوب": 1.0, "فيتامين": 1.0, "مسكن": 1.0,
		"مرهم":     1.0,
		"pharmacy": 1.0, "medical": 1.0, "wellness": 1.0,
	},
}

// keywordCategories fixes the iteration order over categoryKeywords.
var keywordCategories = sortedCategoryKeys()

func sortedCategoryKeys() []models.Category {
	keys := make([]models.Category, 0, len(categoryKeywords))
	for category := range categoryKeywords {
		keys = append(keys, category)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

var brandCategories = map[string]models.Category{
	"almarai":      models.CategoryDairy,
	"juhayna":      models.CategoryDairy,
	"domty":        models.CategoryDairy,
	"beyti":        models.CategoryDairy,
	"nada":         models.CategoryDairy,
	"philadelphia": models.CategoryDairy,
	"lactel":       models.CategoryDairy,

	"coca-cola": models.CategoryBeverages,
	"pepsi":     models.CategoryBeverages,
	"sprite":    models.CategoryBeverages,
	"fanta":     models.CategoryBeverages,
	"tropicana": models.CategoryBeverages,
	"aquafina":  models.CategoryBeverages,
	"lipton":    models.CategoryBeverages,

	"lays":     models.CategorySnacks,
	"pringles": models.CategorySnacks,
	"doritos":  models.CategorySnacks,
	"cheetos":  models.CategorySnacks,
	"oreo":     models.CategorySnacks,
	"kitkat":   models.CategorySnacks,
	"snickers": models.CategorySnacks,
	"cadbury":  models.CategorySnacks,

	"ariel":  models.CategoryHousehold,
	"tide":   models.CategoryHousehold,
	"persil": models.CategoryHousehold,
	"fairy":  models.CategoryHousehold,
	"clorox": models.CategoryHousehold,
	"downy":  models.CategoryHousehold,

	"nivea":   models.CategoryPersonalCare,
	"dove":    models.CategoryPersonalCare,
	"olay":    models.CategoryPersonalCare,
	"pantene": models.CategoryPersonalCare,
	"loreal":  models.CategoryPersonalCare,
	"garnier": models.CategoryPersonalCare,
	"colgate": models.CategoryPersonalCare,
	"oral-b":  models.CategoryPersonalCare,

	"pampers": models.CategoryBabyCare,
	"huggies": models.CategoryBabyCare,
	"mustela": models.CategoryBabyCare,
	"sebamed": models.CategoryBabyCare,
	"chicco":  models.CategoryBabyCare,
	"avent":   models.CategoryBabyCare,

	"panadol":  models.CategoryHealth,
	"advil":    models.CategoryHealth,
	"centrum":  models.CategoryHealth,
	"bayer":    models.CategoryHealth,
	"voltaren": models.CategoryHealth,
}

// brandNames fixes the iteration order for partial brand matching.
var brandNames = sortedStringKeys(brandCategories)

var storeCategoryMap = map[string]models.Category{
	"dairy":         models.CategoryDairy,
	"meat":          models.CategoryMeat,
	"poultry":       models.CategoryMeat,
	"seafood":       models.CategoryMeat,
	"produce":       models.CategoryVegetables,
	"vegetables":    models.CategoryVegetables,
	"fruits":        models.CategoryFruits,
	"bakery":        models.CategoryBakery,
	"bread":         models.CategoryBakery,
	"beverages":     models.CategoryBeverages,
	"drinks":        models.CategoryBeverages,
	"pantry":        models.CategoryPantry,
	"grocery":       models.CategoryPantry,
	"snacks":        models.CategorySnacks,
	"frozen":        models.CategoryFrozen,
	"household":     models.CategoryHousehold,
	"cleaning":      models.CategoryHousehold,
	"personal care": models.CategoryPersonalCare,
	"beauty":        models.CategoryPersonalCare,
	"baby":          models.CategoryBabyCare,
	"health":        models.CategoryHealth,
	"pharmacy":      models.CategoryHealth,
	"pet":           models.CategoryPet,
}

var storeCategoryLabels = sortedStringKeys(storeCategoryMap)

func sortedStringKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Unit patterns that hint at a category without naming the product.
var unitPatterns = map[models.Category][]*regexp.Regexp{
	models.CategoryMeat: {
		regexp.MustCompile(`\d+\s*kg`),
		regexp.MustCompile(`\d+\s*g\b`),
		regexp.MustCompile(`per\s+kg`),
	},
	models.CategoryVegetables: {
		regexp.MustCompile(`\d+\s*kg`),
		regexp.MustCompile(`\bbunch\b`),
		regexp.MustCompile(`\bhead\b`),
		regexp.MustCompile(`\bpiece\b`),
	},
	models.CategoryDairy: {
		regexp.MustCompile(`\d+\s*ml`),
		regexp.MustCompile(`\d+\s*l\b`),
		regexp.MustCompile(`low\s+fat`),
		regexp.MustCompile(`full\s+fat`),
	},
	models.CategoryBeverages: {
		regexp.MustCompile(`\d+\s*ml`),
		regexp.MustCompile(`\d+\s*l\b`),
		regexp.MustCompile(`\bbottle\b`),
		regexp.MustCompile(`\bcan\b`),
	},
	models.CategoryPantry: {
		regexp.MustCompile(`\d+\s*g\b`),
		regexp.MustCompile(`\bjar\b`),
		regexp.MustCompile(`\bbag\b`),
	},
}

var unitPatternCategories = func() []models.Category {
	keys := make([]models.Category, 0, len(unitPatterns))
	for category := range unitPatterns {
		keys = append(keys, category)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}()

// Exclusion vetoes: textual evidence that the winning category cannot be
// right, pushing classification to the next-best candidate.
var exclusionPatterns = map[models.Category][]*regexp.Regexp{
	models.CategoryMeat: {
		regexp.MustCompile(`\bsoap\b`),
		regexp.MustCompile(`\bshampoo\b`),
		regexp.MustCompile(`\bdetergent\b`),
		regexp.MustCompile(`\bcleaner\b`),
	},
	models.CategoryBeverages: {
		regexp.MustCompile(`\bsoap\b`),
		regexp.MustCompile(`\bshampoo\b`),
		regexp.MustCompile(`\blotion\b`),
	},
	models.CategoryPersonalCare: {
		regexp.MustCompile(`\bfood\b`),
		regexp.MustCompile(`\bdrink\b`),
		regexp.MustCompile(`\bmeal\b`),
	},
}
