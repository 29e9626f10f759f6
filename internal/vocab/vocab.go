package vocab // 技能与角色识别的静态词表

// Skills 关键词扫描使用的已知技能词表。全部为小写；
// 顺序即扫描顺序（输出为集合，顺序不影响结果，仅便于维护）。
// 合并了匹配侧与上传侧两份历史词表。
var Skills = []string{
	// 编程语言
	"python", "java", "javascript", "typescript", "go", "golang", "rust", "c++", "c#",
	// 云平台
	"aws", "azure", "gcp", "cloud",
	// 容器与基础设施
	"docker", "kubernetes", "k8s", "terraform", "ansible",
	// 前后端框架
	"react", "angular", "vue", "node", "nodejs", "django", "flask", "fastapi", "spring",
	// 数据库
	"sql", "nosql", "mongodb", "postgresql", "mysql", "dynamodb", "redis",
	// CI/CD 与研发流程
	"ci/cd", "cicd", "devops", "jenkins", "github actions", "gitlab", "agile", "scrum",
	// 工具与其他
	"git", "github", "linux", "bash", "prometheus", "grafana", "cloudwatch",
	"rest api", "graphql", "microservices",
}

// RoleKeywords 一个角色与触发它的关键词列表
type RoleKeywords struct {
	Role     string
	Keywords []string
}

// RoleTable 角色识别表。顺序是契约的一部分：文本同时命中多个角色的
// 关键词时，排在前面的角色胜出（例如同时出现 site reliability 与
// full stack 的简历判为 DevOps Engineer）。
var RoleTable = []RoleKeywords{
	{Role: "DevOps Engineer", Keywords: []string{"devops", "site reliability", "sre", "platform engineer"}},
	{Role: "Cloud Engineer", Keywords: []string{"cloud engineer", "cloud architect", "aws engineer", "solutions architect"}},
	{Role: "Data Engineer", Keywords: []string{"data engineer", "data scientist", "ml engineer", "machine learning"}},
	{Role: "Full Stack Developer", Keywords: []string{"full stack", "fullstack", "full-stack"}},
	{Role: "Backend Developer", Keywords: []string{"backend", "back-end", "server-side"}},
	{Role: "Frontend Developer", Keywords: []string{"frontend", "front-end", "ui developer"}},
}

// DefaultRole 没有任何关键词命中时返回的角色
const DefaultRole = "Software Engineer"
